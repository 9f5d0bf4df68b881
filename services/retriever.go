package services

import (
	"context"
	"sort"

	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// DocumentStore is the persistence collaborator the engine retrieves from.
// The engine never owns storage; it only reads documents and repairs
// missing chunk sets.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	SaveDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, id string) error
	ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) error
}

// ScoredChunk wraps a chunk reference with its relevance for one query.
// Transient; never persisted.
type ScoredChunk struct {
	Chunk       models.Chunk
	DocumentID  string
	DocTitle    string
	DocFilename string
	Score       float64
	Query       string
}

// Retriever scores every chunk of every document against a query and
// returns the ranked candidates above the relevance floor.
type Retriever struct {
	store   DocumentStore
	scorer  *LexicalScorer
	chunker *Chunker
	cfg     EngineConfig
}

func NewRetriever(store DocumentStore, scorer *LexicalScorer, chunker *Chunker, cfg EngineConfig) *Retriever {
	return &Retriever{store: store, scorer: scorer, chunker: chunker, cfg: cfg}
}

// Retrieve ranks chunks of the given documents by lexical score, descending,
// keeping only those above the floor, truncated to limit. Ties keep the
// original (document, order) position so results are reproducible. Empty
// queries or document sets yield an empty result, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, docs []models.Document, limit int) []ScoredChunk {
	if len(docs) == 0 || len(r.scorer.QueryTerms(query)) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = r.cfg.AskTopK
	}

	var candidates []ScoredChunk
	for i := range docs {
		doc := &docs[i]
		chunks := r.EnsureChunks(ctx, doc)
		for _, chunk := range chunks {
			score := r.scoreChunk(query, chunk, doc)
			if score <= r.cfg.MinChunkScore {
				continue
			}
			candidates = append(candidates, ScoredChunk{
				Chunk:       chunk,
				DocumentID:  doc.ID,
				DocTitle:    doc.Title,
				DocFilename: doc.Filename,
				Score:       score,
				Query:       query,
			})
		}
	}

	// Candidates are appended in (document, order) sequence, so a stable
	// sort keeps that order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// scoreChunk isolates a single chunk's scoring so a panic over one
// malformed chunk skips it instead of aborting the whole request.
func (r *Retriever) scoreChunk(query string, chunk models.Chunk, doc *models.Document) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("chunk scoring panicked, skipping chunk",
				"chunk_id", chunk.ChunkID, "panic", rec)
			score = 0
		}
	}()
	return r.scorer.Score(query, chunk, doc.Title, doc.Filename)
}

// EnsureChunks returns the document's chunks, building and persisting them
// when a document predates chunked storage. The repair is idempotent: a
// concurrent backfill of the same document is redundant work, not a
// correctness hazard, and the store state is re-checked before persisting.
func (r *Retriever) EnsureChunks(ctx context.Context, doc *models.Document) []models.Chunk {
	if len(doc.Chunks) > 0 {
		return doc.Chunks
	}
	if doc.Content == "" {
		return nil
	}

	chunks := r.chunker.ChunkDocument(doc.Content, doc.ID, doc.Title)
	if len(chunks) == 0 {
		return nil
	}

	// Another request may have repaired this document already.
	if fresh, err := r.store.GetDocument(ctx, doc.ID); err == nil && fresh != nil && len(fresh.Chunks) > 0 {
		doc.Chunks = fresh.Chunks
		return fresh.Chunks
	}

	if err := r.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		// Persistence failure does not block this query; the chunks are
		// still usable in memory and the next search retries the repair.
		logger.Warn("chunk backfill persist failed", "doc_id", doc.ID, "error", err)
	}

	doc.Chunks = chunks
	return chunks
}
