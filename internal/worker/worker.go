package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docuchat/internal/domain"
	"docuchat/internal/usecase"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	jobTimeout          = 5 * time.Minute
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// IngestWorker polls the job queue and runs queued document ingestions.
type IngestWorker struct {
	jobRepo  domain.IngestJobRepository
	ingest   usecase.IngestDocumentUsecase
	logger   *slog.Logger
	stopChan chan struct{}
	backoff  time.Duration
}

// NewIngestWorker creates an IngestWorker.
func NewIngestWorker(jobRepo domain.IngestJobRepository, ingest usecase.IngestDocumentUsecase, logger *slog.Logger) *IngestWorker {
	return &IngestWorker{
		jobRepo:  jobRepo,
		ingest:   ingest,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (w *IngestWorker) Start() {
	w.logger.Info("starting ingest worker")
	go w.run()
}

// Stop signals the polling loop to exit.
func (w *IngestWorker) Stop() {
	w.logger.Info("stopping ingest worker")
	close(w.stopChan)
}

func (w *IngestWorker) run() {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.ProcessNext()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(defaultPollInterval)
			}
		}
	}
}

// ProcessNext claims and processes one job, if any is queued. Failures back
// off exponentially so a broken collaborator is not hammered.
func (w *IngestWorker) ProcessNext() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := w.jobRepo.AcquireNext(ctx)
	if err != nil {
		w.logger.Error("failed to acquire next job", "error", err)
		return
	}
	if job == nil {
		return
	}

	w.logger.Info("processing job", "job_id", job.ID, "type", job.JobType)

	var processErr error
	switch job.JobType {
	case "ingest_document":
		_, processErr = w.ingest.Ingest(ctx, job.Payload.Name, job.Payload.Body)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.JobType)
	}

	status := "completed"
	var errMsg *string
	if processErr != nil {
		status = "failed"
		msg := processErr.Error()
		errMsg = &msg
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Error("job failed", "job_id", job.ID, "error", processErr)
	} else {
		w.backoff = 0
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
		w.logger.Error("failed to update job status", "job_id", job.ID, "error", err)
	}
}

func (w *IngestWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
