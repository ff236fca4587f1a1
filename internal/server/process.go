package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/courierpay/courierpay/internal/processor"
	"go.uber.org/zap"
)

// handleProcess parses a multipart PDF batch synchronously.
func (s *Server) handleProcess(c *gin.Context) {
	files, err := s.readBatch(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result := s.processor.Process(c.Request.Context(), files)
	status := http.StatusOK
	if !result.Validation.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// handleProcessAsync submits the batch to the worker and streams progress
// events until the terminal event arrives.
func (s *Server) handleProcessAsync(c *gin.Context) {
	files, err := s.readBatch(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	requestID, events, err := s.worker.Submit(c.Request.Context(), files)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("batch submitted",
		zap.String("worker_request_id", requestID),
		zap.Int("files", len(files)),
	)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Kind, payload)
		c.Writer.Flush()
	}
}

// readBatch builds FileInputs from the multipart "files" field. Oversized
// parts are passed through with their declared size so batch validation can
// report them; only transport failures error here.
func (s *Server) readBatch(c *gin.Context) ([]processor.FileInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, invalidRequestError()
	}

	parts := form.File["files"]
	inputs := make([]processor.FileInput, 0, len(parts))
	for _, part := range parts {
		data, err := readPart(part)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", part.Filename, err)
		}
		inputs = append(inputs, processor.FileInput{
			Name:         part.Filename,
			Size:         part.Size,
			MimeType:     part.Header.Get("Content-Type"),
			LastModified: partLastModified(part, s.clock.Now()),
			Data:         data,
		})
	}
	return inputs, nil
}

func readPart(part *multipart.FileHeader) ([]byte, error) {
	f, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// partLastModified honors a Last-Modified part header when the client sends
// one, falling back to receipt time.
func partLastModified(part *multipart.FileHeader, fallback time.Time) time.Time {
	raw := part.Header.Get("Last-Modified")
	if raw == "" {
		return fallback
	}
	if t, err := http.ParseTime(raw); err == nil {
		return t
	}
	return fallback
}
