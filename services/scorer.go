package services

import (
	"strings"
	"unicode"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// stopWords are never counted as query terms on their own.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "it": true, "this": true,
	"that": true, "these": true, "those": true, "from": true, "into": true,
	"about": true, "what": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "which": true, "does": true, "did": true,
	"do": true, "can": true, "could": true, "will": true, "would": true,
	"should": true, "tell": true, "me": true, "you": true, "your": true,
	"please": true, "their": true, "there": true, "they": true, "has": true,
	"have": true, "had": true,
}

// LexicalScorer computes a deterministic term/phrase-overlap relevance
// score for a chunk against a query. No embeddings, no external calls.
type LexicalScorer struct {
	cfg EngineConfig
}

func NewLexicalScorer(cfg EngineConfig) *LexicalScorer {
	return &LexicalScorer{cfg: cfg}
}

// QueryTerms lower-cases and tokenizes the query, dropping stop words and
// tokens of length <= 2. If filtering removes everything, the unfiltered
// token list is used so short queries still retrieve.
func (s *LexicalScorer) QueryTerms(query string) []string {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(query)))

	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		filtered = append(filtered, tok)
	}
	if len(filtered) == 0 {
		return tokens
	}
	return filtered
}

// Score sums the lexical signals for one chunk. Chunks scoring at or below
// the candidate floor are not retrieval candidates.
func (s *LexicalScorer) Score(query string, chunk models.Chunk, docTitle, docFilename string) float64 {
	loweredQuery := strings.ToLower(strings.TrimSpace(query))
	if loweredQuery == "" || chunk.Content == "" {
		return 0
	}
	loweredChunk := strings.ToLower(chunk.Content)

	var score float64

	// Exact phrase match inside the chunk, per occurrence
	if n := strings.Count(loweredChunk, loweredQuery); n > 0 {
		score += s.cfg.PhraseWeight * float64(n)
	}

	// Flat bonuses for phrase matches in title and filename
	if strings.Contains(strings.ToLower(docTitle), loweredQuery) {
		score += s.cfg.TitleWeight
	}
	if strings.Contains(strings.ToLower(docFilename), loweredQuery) {
		score += s.cfg.FilenameWeight
	}

	terms := s.QueryTerms(query)
	if len(terms) == 0 {
		return score
	}

	chunkWords := tokenizeWords(loweredChunk)

	matched := 0
	firstPos := -1
	for _, term := range terms {
		count := chunkWords[term]
		if count == 0 {
			continue
		}
		matched++
		score += s.cfg.TermWeight * float64(count)
		if firstPos < 0 {
			firstPos = strings.Index(loweredChunk, term)
		}
	}

	// Coverage bonus rewards chunks matching many distinct terms
	if len(terms) > 1 {
		score += float64(matched) / float64(len(terms)) * s.cfg.CoverageWeight
	}

	// Proximity bonus: later terms occurring near the first matched term
	if matched >= 2 && firstPos >= 0 {
		seen := false
		for _, term := range terms {
			pos := strings.Index(loweredChunk, term)
			if pos < 0 {
				continue
			}
			if !seen {
				// Skip the first matched term itself
				seen = true
				continue
			}
			if abs(pos-firstPos) < s.cfg.ProximityWindow {
				score += s.cfg.ProximityWeight
			}
		}
	}

	return score
}

// tokenizeWords counts whole-word occurrences in already-lowered text.
func tokenizeWords(lowered string) map[string]int {
	counts := make(map[string]int)
	for _, word := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		word = strings.Trim(word, "'")
		if word != "" {
			counts[word]++
		}
	}
	return counts
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
