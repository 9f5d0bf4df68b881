package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// AnswerStyle selects between a short direct answer and a paragraph.
type AnswerStyle string

const (
	StyleDirect     AnswerStyle = "direct"
	StyleElaborated AnswerStyle = "elaborated"
)

// Generator is the external generative collaborator. Absence of a
// configured generator is a normal, expected state: Available reports it
// before any call is made.
type Generator interface {
	Generate(ctx context.Context, prompt string, style AnswerStyle) (string, error)
	Available() bool
}

// Answer is the assembled response plus the citations that justify it.
type Answer struct {
	Text    string
	Sources []models.Citation

	// GeneratorFallback is set when a configured generator failed and the
	// text was assembled deterministically instead.
	GeneratorFallback bool
}

// Assembler orchestrates the retrieval pipeline and produces an answer.
// It never fails for a well-formed, non-empty query: when the generator is
// missing or errors it falls back to deterministic sentence concatenation.
type Assembler struct {
	store           DocumentStore
	retriever       *Retriever
	selector        *DiversitySelector
	extractor       *SentenceExtractor
	scorer          *LexicalScorer
	generator       Generator
	knowledge       KnowledgeBase
	cfg             EngineConfig
	generateTimeout time.Duration
}

func NewAssembler(store DocumentStore, retriever *Retriever, selector *DiversitySelector,
	extractor *SentenceExtractor, scorer *LexicalScorer, generator Generator,
	knowledge KnowledgeBase, cfg EngineConfig, generateTimeout time.Duration) *Assembler {
	if generateTimeout <= 0 {
		generateTimeout = 20 * time.Second
	}
	return &Assembler{
		store:           store,
		retriever:       retriever,
		selector:        selector,
		extractor:       extractor,
		scorer:          scorer,
		generator:       generator,
		knowledge:       knowledge,
		cfg:             cfg,
		generateTimeout: generateTimeout,
	}
}

var (
	greetingRegex = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good\s+(morning|afternoon|evening)|greetings)\s*[.!?]*\s*$`)
	thanksRegex   = regexp.MustCompile(`(?i)^\s*(thanks|thank\s+you|thx|ty)\s*(a\s+lot|so\s+much|very\s+much)?\s*[.!?]*\s*$`)

	explanatoryRegex = regexp.MustCompile(`(?i)\b(explain|describe|elaborate|walk\s+me\s+through|how\s+does|how\s+do|in\s+detail|tell\s+me\s+about)\b`)
	closedFormRegex  = regexp.MustCompile(`(?i)^\s*(what\s+is|what's|who\s+is|who's|how\s+many|how\s+much|when\s+is|when\s+was|where\s+is|is\s+|are\s+|was\s+|were\s+|does\s+|do\s+|did\s+|can\s+|has\s+|have\s+)`)
)

// DetectAnswerStyle decides whether the query wants an elaborated
// paragraph or a short direct answer.
func DetectAnswerStyle(query string) AnswerStyle {
	if explanatoryRegex.MatchString(query) {
		return StyleElaborated
	}
	if closedFormRegex.MatchString(query) {
		return StyleDirect
	}
	if len(strings.Fields(query)) > 8 {
		return StyleElaborated
	}
	return StyleDirect
}

// Ask runs the full pipeline for one query. The returned answer is always
// non-empty; the error is reserved for store failures.
func (a *Assembler) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		// The HTTP boundary rejects empty queries; this is a belt for
		// in-process callers.
		return &Answer{Text: "Please ask a question.", Sources: []models.Citation{}}, nil
	}

	// Short-circuits bypass retrieval entirely.
	if IsArithmeticQuery(query) {
		if result, err := EvaluateArithmetic(query); err == nil {
			return &Answer{Text: result, Sources: []models.Citation{}}, nil
		}
	}
	if greetingRegex.MatchString(query) {
		return &Answer{Text: "Hello! Ask me anything about your uploaded documents.", Sources: []models.Citation{}}, nil
	}
	if thanksRegex.MatchString(query) {
		return &Answer{Text: "You're welcome! Happy to help.", Sources: []models.Citation{}}, nil
	}

	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		if a.knowledge != nil {
			if fact, ok := a.knowledge.Match(query); ok {
				return &Answer{Text: fact, Sources: []models.Citation{}}, nil
			}
		}
		return &Answer{
			Text:    "No documents have been uploaded yet, and I don't know the answer to that offhand. Upload a document and ask again.",
			Sources: []models.Citation{},
		}, nil
	}

	ranked := a.retriever.Retrieve(ctx, query, docs, a.cfg.AskTopK)
	if len(ranked) == 0 {
		// Documents exist but nothing clears the relevance floor: say so
		// instead of guessing from unrelated material.
		if a.knowledge != nil {
			if fact, ok := a.knowledge.Match(query); ok {
				return &Answer{Text: fact, Sources: []models.Citation{}}, nil
			}
		}
		return &Answer{
			Text:    "I couldn't find anything about that in your uploaded documents.",
			Sources: []models.Citation{},
		}, nil
	}

	selected := a.selector.Select(ranked, a.cfg.MaxContextChunks)
	kind := DetectQuestionKind(query)
	style := DetectAnswerStyle(query)
	person := DetectPersonName(query)
	terms := a.scorer.QueryTerms(query)

	sentences, contributing := a.extractSentences(selected, query, terms, kind, person)
	citations := buildCitations(contributing, a.cfg.SnippetLength)

	// Person-filtered extraction can skip every chunk; fall back to the
	// unfiltered view rather than returning nothing.
	if len(sentences) == 0 && person != "" {
		sentences, contributing = a.extractSentences(selected, query, terms, kind, "")
		citations = buildCitations(contributing, a.cfg.SnippetLength)
	}
	if len(sentences) == 0 {
		return &Answer{
			Text:    "I couldn't find anything about that in your uploaded documents.",
			Sources: []models.Citation{},
		}, nil
	}

	fellBack := false
	if a.generator != nil && a.generator.Available() {
		prompt := buildPrompt(query, sentences, style)
		genCtx, cancel := context.WithTimeout(ctx, a.generateTimeout)
		text, genErr := a.generator.Generate(genCtx, prompt, style)
		cancel()
		if genErr == nil && strings.TrimSpace(text) != "" {
			return &Answer{Text: strings.TrimSpace(text), Sources: citations}, nil
		}
		// Transient generator failure is not the caller's problem; fall
		// through to deterministic assembly.
		logger.Warn("generator failed, using fallback assembly", "error", genErr)
		fellBack = true
	}

	return &Answer{
		Text:              a.fallbackAnswer(sentences, style),
		Sources:           citations,
		GeneratorFallback: fellBack,
	}, nil
}

// Search exposes the ranked chunk list for the document search feature.
func (a *Assembler) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ranked := a.retriever.Retrieve(ctx, query, docs, a.cfg.SearchTopK)
	results := make([]models.SearchResult, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, models.SearchResult{
			ChunkID:    sc.Chunk.ChunkID,
			DocumentID: sc.DocumentID,
			Title:      sc.DocTitle,
			Filename:   sc.DocFilename,
			Snippet:    snippetOf(sc.Chunk.Content, a.cfg.SnippetLength),
			Score:      sc.Score,
			Order:      sc.Chunk.Order,
		})
	}
	return results, nil
}

// extractSentences runs the extractor over the selected chunks,
// deduplicating by a normalized prefix key and capping the total. It
// returns the sentences plus the chunks that actually contributed.
func (a *Assembler) extractSentences(selected []ScoredChunk, query string, terms []string, kind QuestionKind, person string) ([]ScoredSentence, []ScoredChunk) {
	seen := make(map[string]bool)
	var sentences []ScoredSentence
	var contributing []ScoredChunk

	for _, sc := range selected {
		extracted := a.extractor.Extract(sc, query, terms, kind, person)
		if len(extracted) == 0 {
			continue
		}
		added := false
		for _, sent := range extracted {
			if len(sentences) >= a.cfg.MaxAnswerSentences {
				break
			}
			key := dedupeKey(sent.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			sentences = append(sentences, sent)
			added = true
		}
		if added {
			contributing = append(contributing, sc)
		}
		if len(sentences) >= a.cfg.MaxAnswerSentences {
			break
		}
	}
	return sentences, contributing
}

// fallbackAnswer concatenates extracted sentences in reading order,
// normalizes whitespace and truncates on a sentence boundary.
func (a *Assembler) fallbackAnswer(sentences []ScoredSentence, style AnswerStyle) string {
	limit := len(sentences)
	if style == StyleDirect && limit > 3 {
		limit = 3
	}

	parts := make([]string, 0, limit)
	for _, sent := range sentences[:limit] {
		parts = append(parts, sent.Text)
	}
	answer := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")

	if len(answer) > a.cfg.MaxAnswerLength {
		cut := answer[:a.cfg.MaxAnswerLength]
		if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
			cut = cut[:idx+1]
		}
		answer = cut
	}
	return answer
}

// buildPrompt assembles the structured context block, one labeled section
// per contributing document, plus a style hint for the generator.
func buildPrompt(query string, sentences []ScoredSentence, style AnswerStyle) string {
	byDoc := make(map[string][]ScoredSentence)
	var docOrder []string
	for _, sent := range sentences {
		if _, ok := byDoc[sent.DocumentID]; !ok {
			docOrder = append(docOrder, sent.DocumentID)
		}
		byDoc[sent.DocumentID] = append(byDoc[sent.DocumentID], sent)
	}

	var b strings.Builder
	for _, docID := range docOrder {
		group := byDoc[docID]
		fmt.Fprintf(&b, "[Document: %s]\n", group[0].DocTitle)
		for _, sent := range group {
			fmt.Fprintf(&b, "- %s\n", sent.Text)
		}
		b.WriteString("\n")
	}

	instruction := "Answer in 1-3 concise sentences."
	if style == StyleElaborated {
		instruction = "Answer with a thorough, well-organized paragraph."
	}

	return fmt.Sprintf("Answer the question using only the context below. If the context does not contain the answer, say so.\n\n%s\nQuestion: %s\n\n%s", b.String(), query, instruction)
}

func buildCitations(chunks []ScoredChunk, snippetLen int) []models.Citation {
	citations := make([]models.Citation, 0, len(chunks))
	for _, sc := range chunks {
		citations = append(citations, models.Citation{
			DocumentID: sc.DocumentID,
			Title:      sc.DocTitle,
			Filename:   sc.DocFilename,
			Snippet:    snippetOf(sc.Chunk.Content, snippetLen),
			Score:      sc.Score,
		})
	}
	return citations
}

// dedupeKey normalizes a sentence to its alphanumeric prefix so near-equal
// sentences from overlapping chunks collapse to one.
func dedupeKey(sentence string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(sentence) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 60 {
			break
		}
	}
	return b.String()
}

func snippetOf(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	return strings.TrimSpace(text[:n]) + "..."
}
