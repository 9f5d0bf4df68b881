package services

import (
	"strings"
	"testing"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

func testChunk(content string) models.Chunk {
	return models.Chunk{ChunkID: "doc1_chunk_0", DocID: "doc1", Content: content}
}

func TestQueryTermsFiltersStopWordsAndShortTokens(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	terms := s.QueryTerms("What is the annual membership fee?")
	want := []string{"annual", "membership", "fee"}
	if len(terms) != len(want) {
		t.Fatalf("got %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d: got %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestQueryTermsFallsBackWhenAllFiltered(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	terms := s.QueryTerms("is it me")
	if len(terms) == 0 {
		t.Fatal("expected unfiltered fallback, got no terms")
	}
}

func TestScorePhraseMatch(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())
	chunk := testChunk("The membership fee is due in January. The membership fee covers all events.")

	score := s.Score("membership fee", chunk, "Dues", "dues.pdf")

	// Two phrase occurrences at 100 each, plus term and coverage signals
	if score < 200 {
		t.Errorf("expected phrase-dominated score >= 200, got %f", score)
	}
}

func TestScoreTitleAndFilenameBonuses(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())
	chunk := testChunk("Nothing relevant in the body text at all.")

	base := s.Score("budget", chunk, "Other", "other.pdf")
	withTitle := s.Score("budget", chunk, "Budget Report", "other.pdf")
	withBoth := s.Score("budget", chunk, "Budget Report", "budget.pdf")

	if withTitle-base != 50 {
		t.Errorf("title bonus: got %f, want 50", withTitle-base)
	}
	if withBoth-withTitle != 30 {
		t.Errorf("filename bonus: got %f, want 30", withBoth-withTitle)
	}
}

func TestScoreTermFrequency(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	once := s.Score("treasurer", testChunk("The treasurer spoke."), "", "")
	thrice := s.Score("treasurer", testChunk("The treasurer spoke. The treasurer voted. The treasurer left."), "", "")

	if thrice <= once {
		t.Errorf("repeated term should raise score: once=%f thrice=%f", once, thrice)
	}
}

func TestTokenizeWordsCountsWholeWordsOnly(t *testing.T) {
	counts := tokenizeWords("this particular paragraph mentions art once")

	if counts["art"] != 1 {
		t.Errorf("expected one whole-word 'art', got %d", counts["art"])
	}
	if counts["particular"] != 1 {
		t.Errorf("expected one 'particular', got %d", counts["particular"])
	}
}

func TestScoreCoverageBonus(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	partial := s.Score("treasurer budget", testChunk("The budget was approved yesterday afternoon here."), "", "")
	full := s.Score("treasurer budget", testChunk("The treasurer presented a budget."), "", "")

	if full <= partial {
		t.Errorf("full coverage should beat partial: full=%f partial=%f", full, partial)
	}
}

func TestScoreProximityBonus(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	near := s.Score("treasurer budget", testChunk("The treasurer presented the budget."), "", "")
	far := s.Score("treasurer budget",
		testChunk("The treasurer opened the meeting. "+strings.Repeat("Unrelated filler sentence follows here. ", 8)+"Later the budget passed."), "", "")

	if near <= far {
		t.Errorf("nearby terms should score higher: near=%f far=%f", near, far)
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())

	if score := s.Score("", testChunk("content"), "", ""); score != 0 {
		t.Errorf("empty query scored %f", score)
	}
	if score := s.Score("query", testChunk(""), "", ""); score != 0 {
		t.Errorf("empty chunk scored %f", score)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewLexicalScorer(DefaultEngineConfig())
	chunk := testChunk("The annual general meeting elects the treasurer and the secretary each spring.")

	first := s.Score("who is the treasurer", chunk, "Minutes", "minutes.pdf")
	for i := 0; i < 10; i++ {
		if again := s.Score("who is the treasurer", chunk, "Minutes", "minutes.pdf"); again != first {
			t.Fatalf("score changed between runs: %f vs %f", first, again)
		}
	}
}
