package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
)

// handleFingerprintFiles fingerprints an uploaded file set and records it
// against the user's history.
func (s *Server) handleFingerprintFiles(c *gin.Context) {
	userID := c.PostForm("user_id")
	if userID == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user_id is required"))
		return
	}

	files, err := s.readBatch(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(files) == 0 {
		AbortWithError(c, newValidationError("files", "required", "at least one file is required"))
		return
	}

	metadata := make([]fpdomain.FileMetadata, 0, len(files))
	previewChars := s.extractionCfg.Current().ContentPreviewChars
	for _, file := range files {
		preview := file.Data
		if len(preview) > previewChars {
			preview = preview[:previewChars]
		}
		metadata = append(metadata, fpdomain.FileMetadata{
			Name:         file.Name,
			Size:         file.Size,
			LastModified: file.LastModified,
			Preview:      string(preview),
			Type:         file.MimeType,
		})
	}

	fp := s.fingerprintSvc.ComputeFileSet(metadata)
	comparison, err := s.fingerprintSvc.Record(c.Request.Context(), userID, fpdomain.KindFileSet, fp, metadata)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fingerprint": fp,
		"comparison":  comparison,
	})
}

type manualFingerprintRequest struct {
	UserID  string                      `json:"user_id" binding:"required"`
	Entries []analysisdomain.DailyEntry `json:"entries" binding:"required"`
}

// handleFingerprintManual fingerprints manually entered daily entries.
func (s *Server) handleFingerprintManual(c *gin.Context) {
	var req manualFingerprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fp := s.fingerprintSvc.ComputeManualEntries(req.Entries)
	comparison, err := s.fingerprintSvc.Record(c.Request.Context(), req.UserID, fpdomain.KindManualEntry, fp, nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fingerprint": fp,
		"comparison":  comparison,
	})
}

type compareFingerprintRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Digest string `json:"digest" binding:"required"`
	Files  []struct {
		Name           string `json:"name"`
		Size           int64  `json:"size"`
		LastModifiedMs int64  `json:"last_modified_ms"`
	} `json:"files"`
}

// handleFingerprintCompare classifies a digest against stored history without
// recording anything.
func (s *Server) handleFingerprintCompare(c *gin.Context) {
	var req compareFingerprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	files := make([]fpdomain.FileMetadata, 0, len(req.Files))
	for _, file := range req.Files {
		files = append(files, fpdomain.FileMetadata{
			Name:         file.Name,
			Size:         file.Size,
			LastModified: time.UnixMilli(file.LastModifiedMs).UTC(),
		})
	}

	comparison, err := s.fingerprintSvc.Compare(c.Request.Context(), req.UserID, req.Digest, files)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}
