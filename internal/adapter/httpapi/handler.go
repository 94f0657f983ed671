package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docuchat/internal/domain"
	"docuchat/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUploadBytes caps how much of an uploaded file is read.
const maxUploadBytes = 10 << 20

// Handler exposes the conversational and ingestion endpoints.
type Handler struct {
	ask    usecase.AskUsecase
	ingest usecase.IngestDocumentUsecase
	jobs   domain.IngestJobRepository
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(ask usecase.AskUsecase, ingest usecase.IngestDocumentUsecase, jobs domain.IngestJobRepository, logger *slog.Logger) *Handler {
	return &Handler{
		ask:    ask,
		ingest: ingest,
		jobs:   jobs,
		logger: logger,
	}
}

// Register wires the handler's routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/ask", h.Ask)
	e.POST("/upload", h.Upload)
	e.POST("/upload/async", h.UploadAsync)
}

type askRequest struct {
	Question string `json:"question"`
	Query    string `json:"query"`
}

type askResponse struct {
	Question       string   `json:"question"`
	RewrittenQuery string   `json:"rewritten_query"`
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	Runtime        float64  `json:"runtime"`
	Tokens         int      `json:"tokens"`
}

// Ask answers a conversational question against the ingested corpus.
// (POST /ask)
func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	question := req.Question
	if question == "" {
		question = req.Query
	}

	result, err := h.ask.Execute(c.Request().Context(), question)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyQuestion) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "no question provided"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}

	return c.JSON(http.StatusOK, askResponse{
		Question:       result.Question,
		RewrittenQuery: result.RewrittenQuery,
		Answer:         result.Answer,
		Sources:        sources,
		Runtime:        result.Runtime,
		Tokens:         result.Tokens,
	})
}

// Upload ingests a document synchronously. The multipart form carries either
// a raw "text" field or an uploaded plain-text "file".
// (POST /upload)
func (h *Handler) Upload(c echo.Context) error {
	name, body, err := h.extractDocument(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.ingest.Ingest(c.Request().Context(), name, body)
	if err != nil {
		h.logger.Error("upload_failed",
			slog.String("document_name", name),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.logger.Info("upload_completed",
		slog.String("document_name", name),
		slog.Int("passages", result.PassageCount),
		slog.Bool("skipped", result.Skipped))

	message := "data uploaded and stored"
	if result.Skipped {
		message = "document already ingested"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     message,
		"document_id": result.DocumentID.String(),
		"passages":    result.PassageCount,
	})
}

// UploadAsync enqueues an ingestion job and returns immediately.
// (POST /upload/async)
func (h *Handler) UploadAsync(c echo.Context) error {
	name, body, err := h.extractDocument(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	now := time.Now()
	job := &domain.IngestJob{
		ID:        uuid.New(),
		JobType:   "ingest_document",
		Payload:   domain.IngestJobPayload{Name: name, Body: body},
		Status:    "new",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.jobs.Enqueue(c.Request().Context(), job); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.logger.Info("ingest_job_enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("document_name", name))

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id": job.ID.String(),
		"status": "queued",
	})
}

// extractDocument pulls the document name and body out of the multipart form.
// An uploaded file takes precedence over the raw text field.
func (h *Handler) extractDocument(c echo.Context) (string, string, error) {
	if file, err := c.FormFile("file"); err == nil && file.Filename != "" {
		src, err := file.Open()
		if err != nil {
			return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer func() { _ = src.Close() }()

		data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
		if err != nil {
			return "", "", fmt.Errorf("failed to read uploaded file: %w", err)
		}
		return file.Filename, string(data), nil
	}

	if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		name := c.FormValue("name")
		if name == "" {
			name = "inline"
		}
		return name, text, nil
	}

	return "", "", errors.New("no file or text provided")
}
