package services

import (
	"testing"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

func scored(docID string, order int, score float64) ScoredChunk {
	return ScoredChunk{
		Chunk:      models.Chunk{ChunkID: models.ChunkID(docID, order), DocID: docID, Order: order},
		DocumentID: docID,
		Score:      score,
	}
}

func TestSelectRepresentsEveryDocument(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	// docA dominates the ranking but docB and docC clear the floor too
	ranked := []ScoredChunk{
		scored("docA", 0, 300),
		scored("docA", 1, 290),
		scored("docA", 2, 280),
		scored("docA", 3, 270),
		scored("docA", 4, 260),
		scored("docA", 5, 250),
		scored("docB", 0, 40),
		scored("docC", 0, 20),
	}

	out := s.Select(ranked, 6)
	if len(out) > 6 {
		t.Fatalf("selected %d chunks, cap is 6", len(out))
	}

	docs := make(map[string]bool)
	for _, sc := range out {
		docs[sc.DocumentID] = true
	}
	for _, want := range []string{"docA", "docB", "docC"} {
		if !docs[want] {
			t.Errorf("document %s not represented", want)
		}
	}
}

func TestSelectKeepsWeakDocumentRepresentative(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	// docA could fill the whole selection on score alone; docB's only
	// chunk barely clears the floor and must still be represented
	ranked := []ScoredChunk{
		scored("docA", 0, 100),
		scored("docA", 1, 90),
		scored("docA", 2, 80),
		scored("docB", 0, 9),
	}

	out := s.Select(ranked, 3)
	if len(out) != 3 {
		t.Fatalf("selected %d chunks, want 3", len(out))
	}

	docs := make(map[string]bool)
	for _, sc := range out {
		docs[sc.DocumentID] = true
	}
	if !docs["docB"] {
		t.Errorf("docB starved out of a size-3 selection: %+v", out)
	}
}

func TestSelectOrdersByScore(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	ranked := []ScoredChunk{
		scored("docA", 0, 100),
		scored("docB", 0, 90),
		scored("docA", 1, 80),
		scored("docB", 1, 70),
	}

	out := s.Select(ranked, 4)
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("selection not descending at %d", i)
		}
	}
}

func TestSelectSkipsBestChunkBelowFloor(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	ranked := []ScoredChunk{
		scored("docA", 0, 100),
		scored("docB", 0, 5), // at most the floor, not above it
	}

	out := s.Select(ranked, 6)
	for _, sc := range out {
		if sc.DocumentID == "docB" {
			t.Error("below-floor chunk selected")
		}
	}
}

func TestSelectEmptyInput(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())
	if out := s.Select(nil, 6); out != nil {
		t.Errorf("expected nil for empty ranking, got %d", len(out))
	}
}

func TestSelectMoreDocumentsThanSlots(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	var ranked []ScoredChunk
	for _, doc := range []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8"} {
		ranked = append(ranked, scored(doc, 0, 50))
	}

	out := s.Select(ranked, 6)
	if len(out) != 6 {
		t.Fatalf("expected exactly 6 picks, got %d", len(out))
	}
}

func TestSelectDeterministic(t *testing.T) {
	s := NewDiversitySelector(DefaultEngineConfig())

	ranked := []ScoredChunk{
		scored("docA", 0, 90),
		scored("docB", 0, 90),
		scored("docA", 1, 60),
		scored("docB", 1, 60),
		scored("docC", 0, 30),
	}

	first := s.Select(ranked, 4)
	for i := 0; i < 5; i++ {
		again := s.Select(ranked, 4)
		if len(again) != len(first) {
			t.Fatalf("selection size changed between runs")
		}
		for j := range first {
			if again[j].Chunk.ChunkID != first[j].Chunk.ChunkID {
				t.Fatalf("selection order changed between runs at %d", j)
			}
		}
	}
}
