package handlers

import (
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrovision/cattle-api/internal/middleware"
	"github.com/agrovision/cattle-api/internal/models"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true, ".bmp": true, ".tiff": true,
}

// PredictNoAuth uploads an image and returns a verdict without requiring
// a login. Nothing is persisted; the report in the response is ephemeral.
func (h *Handler) PredictNoAuth(c *gin.Context) {
	imagePath, imageURL, ok := h.saveUpload(c)
	if !ok {
		return
	}

	pred := h.Predictor.Predict(c.Request.Context(), imagePath)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report": gin.H{
			"report_id":    fmt.Sprintf("RPT-%d", time.Now().UnixMilli()),
			"status":       pred.Status,
			"disease_name": pred.DiseaseName,
			"stage":        pred.Stage,
			"confidence":   pred.Confidence,
			"precautions":  pred.Precautions,
			"image_url":    imageURL,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// PredictAuth uploads an image, runs the prediction and persists the
// outcome as a report owned by the caller.
func (h *Handler) PredictAuth(c *gin.Context) {
	userVal, exists := c.Get(middleware.CtxUser)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	user := userVal.(*models.User)

	imagePath, imageURL, ok := h.saveUpload(c)
	if !ok {
		return
	}

	pred := h.Predictor.Predict(c.Request.Context(), imagePath)

	report := &models.Report{
		ReportID:    uuid.NewString(),
		UserID:      user.UserID,
		UserName:    user.Name,
		ImageURL:    imageURL,
		Status:      pred.Status,
		DiseaseName: pred.DiseaseName,
		Stage:       pred.Stage,
		Confidence:  pred.Confidence,
		Precautions: pred.Precautions,
		Timestamp:   time.Now().UTC(),
	}
	if err := h.Reports.Insert(c.Request.Context(), report); err != nil {
		h.internalError(c, err, "saving report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report": gin.H{
			"report_id":    report.ReportID,
			"status":       report.Status,
			"disease_name": report.DiseaseName,
			"stage":        report.Stage,
			"confidence":   report.Confidence,
			"precautions":  report.Precautions,
			"image_url":    report.ImageURL,
			"timestamp":    report.Timestamp,
		},
	})
}

// saveUpload validates the multipart image and writes it under the upload
// directory. On failure it has already written the error response.
func (h *Handler) saveUpload(c *gin.Context) (imagePath, imageURL string, ok bool) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file uploaded"})
		return "", "", false
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 10MB limit"})
		return "", "", false
	}
	if !isImageUpload(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return "", "", false
	}

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		h.internalError(c, err, "creating upload dir")
		return "", "", false
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := fmt.Sprintf("cattle-%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), ext)
	imagePath = filepath.Join(h.Cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, imagePath); err != nil {
		h.internalError(c, err, "saving upload")
		return "", "", false
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	imageURL = fmt.Sprintf("%s://%s/uploads/%s", scheme, c.Request.Host, name)
	return imagePath, imageURL, true
}

func isImageUpload(file *multipart.FileHeader) bool {
	if strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return true
	}
	return allowedImageExts[strings.ToLower(filepath.Ext(file.Filename))]
}
