package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// fakeStore is an in-memory DocumentStore for engine tests.
type fakeStore struct {
	docs         map[string]*models.Document
	replaceCalls int
	failReplace  bool
}

func newFakeStore(docs ...*models.Document) *fakeStore {
	s := &fakeStore{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if d, ok := s.docs[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) DeleteDocument(ctx context.Context, id string) error {
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) error {
	s.replaceCalls++
	if s.failReplace {
		return errors.New("persist failed")
	}
	if d, ok := s.docs[docID]; ok {
		d.Chunks = chunks
	}
	return nil
}

func testRetriever(store DocumentStore) *Retriever {
	cfg := DefaultEngineConfig()
	return NewRetriever(store, NewLexicalScorer(cfg), NewChunker(cfg.ChunkSize, cfg.ChunkOverlap), cfg)
}

func chunkedDoc(id, title string, contents ...string) models.Document {
	doc := models.Document{ID: id, Title: title, Filename: id + ".txt", Status: models.DocStatusCompleted}
	for i, c := range contents {
		doc.Chunks = append(doc.Chunks, models.Chunk{
			ChunkID:  models.ChunkID(id, i),
			DocID:    id,
			DocTitle: title,
			Content:  c,
			Order:    i,
		})
	}
	return doc
}

func TestRetrieveRanksByScoreDescending(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	docs := []models.Document{
		chunkedDoc("doc1", "Minutes",
			"The weather was discussed briefly near the budget.",
			"The treasurer presented the annual budget. The treasurer answered budget questions.",
		),
	}

	ranked := r.Retrieve(context.Background(), "treasurer budget", docs, 10)
	if len(ranked) == 0 {
		t.Fatal("expected candidates")
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("ranking not descending at %d: %f > %f", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
	if ranked[0].Chunk.Order != 1 {
		t.Errorf("expected the treasurer/budget chunk first, got order %d", ranked[0].Chunk.Order)
	}
}

func TestRetrieveDropsChunksAtOrBelowFloor(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	docs := []models.Document{
		chunkedDoc("doc1", "Misc", "Completely unrelated text about gardening and soil."),
	}

	ranked := r.Retrieve(context.Background(), "treasurer budget", docs, 10)
	for _, sc := range ranked {
		if sc.Score <= 8 {
			t.Errorf("candidate at or below floor leaked through: %f", sc.Score)
		}
	}
}

func TestRetrieveTiesKeepDocumentOrder(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	// Identical chunks produce identical scores
	same := "The treasurer presented the budget today."
	docs := []models.Document{
		chunkedDoc("docA", "A", same),
		chunkedDoc("docB", "B", same),
	}

	ranked := r.Retrieve(context.Background(), "treasurer budget", docs, 10)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	if ranked[0].DocumentID != "docA" || ranked[1].DocumentID != "docB" {
		t.Errorf("tie broke input order: %s, %s", ranked[0].DocumentID, ranked[1].DocumentID)
	}
}

func TestRetrieveEmptyInputs(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	if got := r.Retrieve(context.Background(), "query terms", nil, 10); got != nil {
		t.Errorf("expected nil for no documents, got %d", len(got))
	}
	docs := []models.Document{chunkedDoc("doc1", "T", "content")}
	if got := r.Retrieve(context.Background(), "   ", docs, 10); got != nil {
		t.Errorf("expected nil for empty query, got %d", len(got))
	}
}

func TestRetrieveHonorsLimit(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	var contents []string
	for i := 0; i < 30; i++ {
		contents = append(contents, fmt.Sprintf("Entry %d: the treasurer reviewed the budget carefully.", i))
	}
	docs := []models.Document{chunkedDoc("doc1", "Ledger", contents...)}

	ranked := r.Retrieve(context.Background(), "treasurer budget", docs, 12)
	if len(ranked) > 12 {
		t.Errorf("limit exceeded: %d", len(ranked))
	}
}

func TestEnsureChunksBackfillsAndPersists(t *testing.T) {
	doc := &models.Document{
		ID:      "legacy",
		Title:   "Legacy",
		Content: "First paragraph about dues.\n\nSecond paragraph about meetings.",
		Status:  models.DocStatusCompleted,
	}
	store := newFakeStore(doc)
	r := testRetriever(store)

	view := *doc
	chunks := r.EnsureChunks(context.Background(), &view)
	if len(chunks) == 0 {
		t.Fatal("expected backfilled chunks")
	}
	if store.replaceCalls != 1 {
		t.Errorf("expected one persist call, got %d", store.replaceCalls)
	}
	if len(store.docs["legacy"].Chunks) == 0 {
		t.Error("chunks not persisted to the store")
	}
}

func TestEnsureChunksSkipsWhenChunksPresent(t *testing.T) {
	doc := chunkedDoc("doc1", "T", "already chunked content here")
	store := newFakeStore(&doc)
	r := testRetriever(store)

	chunks := r.EnsureChunks(context.Background(), &doc)
	if len(chunks) != 1 {
		t.Fatalf("expected existing chunk returned, got %d", len(chunks))
	}
	if store.replaceCalls != 0 {
		t.Errorf("unexpected persist call")
	}
}

func TestEnsureChunksUsesConcurrentRepair(t *testing.T) {
	// Store already holds a repaired copy; the stale in-memory view should
	// pick it up instead of persisting again.
	repaired := chunkedDoc("doc1", "T", "repaired chunk content goes here")
	repaired.Content = "repaired chunk content goes here"
	store := newFakeStore(&repaired)
	r := testRetriever(store)

	stale := models.Document{ID: "doc1", Title: "T", Content: repaired.Content}
	chunks := r.EnsureChunks(context.Background(), &stale)
	if len(chunks) != 1 {
		t.Fatalf("expected the repaired chunk, got %d", len(chunks))
	}
	if store.replaceCalls != 0 {
		t.Errorf("redundant persist after concurrent repair")
	}
}

func TestEnsureChunksPersistFailureStillReturnsChunks(t *testing.T) {
	doc := &models.Document{ID: "doc1", Title: "T", Content: "Some content to chunk here."}
	store := newFakeStore(doc)
	store.failReplace = true
	r := testRetriever(store)

	view := *doc
	chunks := r.EnsureChunks(context.Background(), &view)
	if len(chunks) == 0 {
		t.Fatal("persist failure must not discard in-memory chunks")
	}
}

func TestEnsureChunksEmptyContent(t *testing.T) {
	store := newFakeStore()
	r := testRetriever(store)

	doc := models.Document{ID: "doc1", Title: "T"}
	if chunks := r.EnsureChunks(context.Background(), &doc); chunks != nil {
		t.Errorf("expected nil for empty content, got %d", len(chunks))
	}
}
