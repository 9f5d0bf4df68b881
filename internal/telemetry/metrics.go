package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	AskCounter         metric.Int64Counter
	AskDuration        metric.Float64Histogram
	ChunksScored       metric.Int64Counter
	DocProcessingTime  metric.Float64Histogram
	GeneratorFallbacks metric.Int64Counter
	DatabaseOperations metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("ktpilot-rag-bot")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	askCounter, err := meter.Int64Counter(
		"ask.requests.total",
		metric.WithDescription("Total answering requests"),
	)
	if err != nil {
		return nil, err
	}

	askDuration, err := meter.Float64Histogram(
		"ask.request.duration",
		metric.WithDescription("Answer pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksScored, err := meter.Int64Counter(
		"retrieval.chunks.scored",
		metric.WithDescription("Total chunks scored during retrieval"),
	)
	if err != nil {
		return nil, err
	}

	docProcessingTime, err := meter.Float64Histogram(
		"document.processing.duration",
		metric.WithDescription("Document extraction and chunking duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generatorFallbacks, err := meter.Int64Counter(
		"generator.fallbacks.total",
		metric.WithDescription("Answers assembled deterministically after a generator failure"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		AskCounter:         askCounter,
		AskDuration:        askDuration,
		ChunksScored:       chunksScored,
		DocProcessingTime:  docProcessingTime,
		GeneratorFallbacks: generatorFallbacks,
		DatabaseOperations: databaseOperations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordAsk records answering pipeline metrics
func (m *Metrics) RecordAsk(outcome string, duration float64, scored int64) {
	attrs := []attribute.KeyValue{
		attribute.String("ask.outcome", outcome),
	}

	m.AskCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.AskDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	if scored > 0 {
		m.ChunksScored.Add(context.Background(), scored)
	}
}

// RecordDocProcessing records document processing metrics
func (m *Metrics) RecordDocProcessing(duration float64, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("document.status", status),
	}

	m.DocProcessingTime.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordGeneratorFallback records a deterministic fallback after a generator error
func (m *Metrics) RecordGeneratorFallback(reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("fallback.reason", reason),
	}

	m.GeneratorFallbacks.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
