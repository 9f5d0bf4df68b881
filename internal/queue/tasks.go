package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/internal/telemetry"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/services"
)

const (
	TaskDocumentProcess = "document:process"
)

type DocumentProcessPayload struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
}

// NewDocumentProcessTask enqueues extraction and chunking for an uploaded
// file too large for the synchronous path.
func NewDocumentProcessTask(docID, title, filename, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{
		DocID:    docID,
		Title:    title,
		Filename: filename,
		FilePath: filePath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentProcess,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles queued document work in the worker process.
type TaskProcessor struct {
	store     services.DocumentStore
	extractor *services.TextExtractor
	chunker   *services.Chunker
	metrics   *telemetry.Metrics
}

func NewTaskProcessor(store services.DocumentStore, extractor *services.TextExtractor, chunker *services.Chunker, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		metrics:   metrics,
	}
}

// ProcessDocument reads the stored upload, extracts its text, chunks it,
// and marks the document completed. A malformed payload is never retried;
// extraction failures mark the document failed so it stays out of
// retrieval.
func (p *TaskProcessor) ProcessDocument(ctx context.Context, t *asynq.Task) error {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing document", "doc_id", payload.DocID, "filename", payload.Filename)
	start := time.Now()

	doc, err := p.store.GetDocument(ctx, payload.DocID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &models.Document{
			ID:         payload.DocID,
			Title:      payload.Title,
			Filename:   payload.Filename,
			FilePath:   payload.FilePath,
			UploadedAt: time.Now(),
		}
	}

	data, err := os.ReadFile(payload.FilePath)
	if err != nil {
		p.markFailed(ctx, doc)
		p.record(start, models.DocStatusFailed)
		return fmt.Errorf("read upload: %v: %w", err, asynq.SkipRetry)
	}

	text, err := p.extractor.Extract(payload.Filename, data)
	if err != nil {
		p.markFailed(ctx, doc)
		p.record(start, models.DocStatusFailed)
		return fmt.Errorf("extract text: %v: %w", err, asynq.SkipRetry)
	}

	doc.Content = text
	doc.Chunks = p.chunker.ChunkDocument(text, doc.ID, doc.Title)
	doc.Status = models.DocStatusCompleted

	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return err
	}
	p.record(start, models.DocStatusCompleted)

	logger.Info("Document processed", "doc_id", doc.ID,
		"chunks", len(doc.Chunks), "duration", time.Since(start).String())
	return nil
}

func (p *TaskProcessor) record(start time.Time, status string) {
	if p.metrics != nil {
		p.metrics.RecordDocProcessing(time.Since(start).Seconds(), status)
	}
}

func (p *TaskProcessor) markFailed(ctx context.Context, doc *models.Document) {
	doc.Status = models.DocStatusFailed
	if err := p.store.SaveDocument(ctx, doc); err != nil {
		logger.Error("Failed to mark document failed", "doc_id", doc.ID, "error", err)
	}
}
