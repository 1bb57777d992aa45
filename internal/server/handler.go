package server

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/engine"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/Veraticus/customs-ai/internal/monitor"
)

// Classifier runs classifications and follow-ups.
type Classifier interface {
	Classify(ctx context.Context, req engine.Request) (*model.Classification, error)
	FollowUp(ctx context.Context, req engine.FollowUpRequest) (string, error)
}

// FeedbackWriter records correctness votes.
type FeedbackWriter interface {
	Append(rec model.FeedbackRecord) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	classifier   Classifier
	feedback     FeedbackWriter
	gate         *PasswordGate
	logger       *slog.Logger
	snapshotPath string
	version      string
}

// NewHandler creates a new HTTP handler.
func NewHandler(classifier Classifier, feedback FeedbackWriter, gate *PasswordGate, snapshotPath, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		classifier:   classifier,
		feedback:     feedback,
		gate:         gate,
		logger:       logger,
		snapshotPath: snapshotPath,
		version:      version,
	}
}

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Description string `json:"description"`
	Country     string `json:"country"`
	ImageBase64 string `json:"image_base64"`
	ImageMIME   string `json:"image_mime"`
}

// ClassifyResponse is the body returned by POST /api/v1/classify.
type ClassifyResponse struct {
	Structured     *model.StructuredClassification `json:"structured,omitempty"`
	Classification string                          `json:"classification"`
	HTSCode        string                          `json:"hts_code,omitempty"`
	Error          string                          `json:"error,omitempty"`
	Matches        []model.Match                   `json:"matches"`
}

// FollowUpRequest is the body of POST /api/v1/followup.
type FollowUpRequest struct {
	Password       string `json:"password"`
	Classification string `json:"classification"`
	Description    string `json:"description"`
	Country        string `json:"country"`
	Question       string `json:"question"`
}

// FeedbackRequest is the body of POST /api/v1/feedback.
type FeedbackRequest struct {
	Correct        *bool  `json:"correct"`
	Description    string `json:"description"`
	Country        string `json:"country"`
	Classification string `json:"classification"`
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "customs-ai",
		"version": h.version,
	})
}

// Classify handles product classification requests.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		data, err := decodeImage(req.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is not valid base64"})
			return
		}
		image = data
	}

	result, err := h.classifier.Classify(c.Request.Context(), engine.Request{
		Description: req.Description,
		Country:     req.Country,
		Image:       image,
		ImageMIME:   req.ImageMIME,
	})
	if err != nil && !(errors.Is(err, common.ErrMalformedOutput) && result != nil) {
		h.respondError(c, err)
		return
	}

	resp := ClassifyResponse{
		Classification: result.Text,
		HTSCode:        result.HTSCode,
		Matches:        result.Matches,
		Structured:     result.Structured,
	}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FollowUp answers a question about a prior classification.
func (h *Handler) FollowUp(c *gin.Context) {
	var req FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.gate.Check(req.Password); err != nil {
		h.respondError(c, err)
		return
	}

	answer, err := h.classifier.FollowUp(c.Request.Context(), engine.FollowUpRequest{
		Classification: req.Classification,
		Description:    req.Description,
		Country:        req.Country,
		Question:       req.Question,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Feedback records whether a classification was correct.
func (h *Handler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Description) == "" || req.Correct == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description and correct are required"})
		return
	}

	if err := h.feedback.Append(model.FeedbackRecord{
		Description:    req.Description,
		Country:        req.Country,
		Classification: req.Classification,
		Correct:        *req.Correct,
	}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// TariffUpdates serves the latest monitor snapshot.
func (h *Handler) TariffUpdates(c *gin.Context) {
	snap, err := monitor.LoadSnapshot(h.snapshotPath)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case common.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUpstream), errors.Is(err, common.ErrMalformedOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeImage(s string) ([]byte, error) {
	// Accept data URLs as produced by browsers.
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
