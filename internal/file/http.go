package file

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skyvault/skyvault/internal/auth"
)

// RegisterRoutes mounts storage operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	storage := group.Group("/storage")
	{
		storage.POST("/upload", handler.upload)
		storage.GET("/files", handler.listFiles)
		storage.GET("/file-data", handler.fileData)
		storage.GET("/download-url", handler.downloadURL)
		storage.GET("/download", handler.download)
		storage.GET("/status", handler.providerStatus)
		storage.GET("/quota", handler.quotaSummary)
	}
}

type httpHandler struct {
	service *Service
}

type uploadResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	File    *Metadata `json:"file,omitempty"`
}

func (h *httpHandler) upload(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	opened, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file"})
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(opened)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file"})
		return
	}

	filename := c.PostForm("filename")
	if filename == "" {
		filename = fileHeader.Filename
	}

	input := UploadInput{
		Data:        data,
		Filename:    filename,
		ContentType: c.PostForm("content_type"),
	}
	if description := c.PostForm("description"); description != "" {
		input.Description = &description
	}

	meta, err := h.service.Upload(c.Request.Context(), userID, input)
	if err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			c.JSON(http.StatusForbidden, uploadResponse{
				Success: false,
				Message: quotaErr.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, uploadResponse{
			Success: false,
			Message: "failed to upload file",
		})
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		Success: true,
		Message: fmt.Sprintf("file uploaded successfully to %s", meta.Provider),
		File:    &meta,
	})
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(files),
		"files":   files,
	})
}

func (h *httpHandler) fileData(c *gin.Context) {
	fileID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	meta, err := h.service.Get(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load file metadata"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "file": meta})
}

func (h *httpHandler) downloadURL(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Query("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	data, err := h.service.DownloadURL(c.Request.Context(), fileID, userID)
	if err != nil {
		writeDownloadError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *httpHandler) download(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Query("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	meta, stream, err := h.service.DownloadStream(c.Request.Context(), fileID, userID)
	if err != nil {
		writeDownloadError(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", meta.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	c.Header("Content-Length", fmt.Sprintf("%d", meta.SizeBytes))

	if _, err := io.Copy(c.Writer, stream); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}

func (h *httpHandler) providerStatus(c *gin.Context) {
	status := h.service.Status(c.Request.Context())

	providers := make([]gin.H, 0, len(status))
	for name, available := range status {
		state := "unavailable"
		if available {
			state = "available"
		}
		providers = append(providers, gin.H{"name": name, "status": state})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "provider status retrieved successfully",
		"providers": providers,
	})
}

func (h *httpHandler) quotaSummary(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.service.QuotaSummary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quota"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func writeDownloadError(c *gin.Context, err error) {
	var unavailable *UnavailableError
	switch {
	case errors.Is(err, ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access to this file is denied"})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": unavailable.Error()})
	case errors.Is(err, ErrProviderNotConfigured), errors.Is(err, ErrDownloadNotSupported):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve download"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve download"})
	}
}
