package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeGenerator lets tests force generator presence, output or failure.
type fakeGenerator struct {
	available bool
	reply     string
	err       error
	prompts   []string
}

func (g *fakeGenerator) Available() bool { return g.available }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, style AnswerStyle) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func testAssembler(store DocumentStore, gen Generator) *Assembler {
	cfg := DefaultEngineConfig()
	scorer := NewLexicalScorer(cfg)
	chunker := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	return NewAssembler(store,
		NewRetriever(store, scorer, chunker, cfg),
		NewDiversitySelector(cfg),
		NewSentenceExtractor(cfg),
		scorer, gen, NewStaticKnowledgeBase(), cfg, time.Second)
}

func TestAskArithmeticShortCircuit(t *testing.T) {
	a := testAssembler(newFakeStore(), nil)

	answer, err := a.Ask(context.Background(), "2 + 2")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if answer.Text != "4" {
		t.Errorf("got %q, want \"4\"", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("arithmetic answer must not cite documents")
	}
}

func TestAskGreetingShortCircuit(t *testing.T) {
	a := testAssembler(newFakeStore(), nil)

	for _, greeting := range []string{"hi", "Hello!", "good morning"} {
		answer, err := a.Ask(context.Background(), greeting)
		if err != nil {
			t.Fatalf("Ask(%q) error: %v", greeting, err)
		}
		if !strings.Contains(answer.Text, "Hello") {
			t.Errorf("Ask(%q) = %q, expected a greeting", greeting, answer.Text)
		}
	}
}

func TestAskNoDocumentsHonestAnswer(t *testing.T) {
	a := testAssembler(newFakeStore(), nil)

	answer, err := a.Ask(context.Background(), "What is our refund policy?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if !strings.Contains(answer.Text, "No documents") {
		t.Errorf("expected honest no-documents answer, got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("no-documents answer must not cite anything")
	}
}

func TestAskNoDocumentsGeneralKnowledge(t *testing.T) {
	a := testAssembler(newFakeStore(), nil)

	answer, err := a.Ask(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if !strings.Contains(answer.Text, "Paris") {
		t.Errorf("expected general-knowledge fallback, got %q", answer.Text)
	}
}

func TestAskNoHitsExplicitNotFound(t *testing.T) {
	doc := chunkedDoc("doc1", "Gardening", "Tomatoes need full sun and regular watering through summer.")
	store := newFakeStore(&doc)
	a := testAssembler(store, nil)

	answer, err := a.Ask(context.Background(), "What is the quarterly audit cadence?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if !strings.Contains(answer.Text, "couldn't find anything") {
		t.Errorf("expected explicit not-found answer, got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("not-found answer must not cite anything")
	}
}

func TestAskAnswersFromDocumentsWithoutGenerator(t *testing.T) {
	doc := chunkedDoc("doc1", "Club Roster",
		"The club has twenty members in total. Bob is the treasurer. The treasurer collects dues each January. Alice is the secretary this year.")
	store := newFakeStore(&doc)
	a := testAssembler(store, nil)

	answer, err := a.Ask(context.Background(), "Who is the treasurer?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if !strings.Contains(answer.Text, "Bob is the treasurer") {
		t.Errorf("expected the treasurer sentence, got %q", answer.Text)
	}
	if len(answer.Sources) == 0 {
		t.Fatal("document-grounded answer must carry citations")
	}
	src := answer.Sources[0]
	if src.DocumentID != "doc1" || src.Title != "Club Roster" {
		t.Errorf("unexpected citation: %+v", src)
	}
	if len(src.Snippet) == 0 || len(src.Snippet) > 210 {
		t.Errorf("snippet length out of range: %d", len(src.Snippet))
	}
}

func TestAskUsesGeneratorWhenAvailable(t *testing.T) {
	doc := chunkedDoc("doc1", "Club Roster", "Bob is the treasurer. The treasurer collects dues in January.")
	store := newFakeStore(&doc)
	gen := &fakeGenerator{available: true, reply: "Bob serves as treasurer."}
	a := testAssembler(store, gen)

	answer, err := a.Ask(context.Background(), "Who is the treasurer?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if answer.Text != "Bob serves as treasurer." {
		t.Errorf("generator reply not used: %q", answer.Text)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected one generator call, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "[Document: Club Roster]") {
		t.Errorf("prompt missing document section:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], "Who is the treasurer?") {
		t.Errorf("prompt missing the question:\n%s", gen.prompts[0])
	}
}

func TestAskFallsBackWhenGeneratorFails(t *testing.T) {
	doc := chunkedDoc("doc1", "Club Roster", "Bob is the treasurer. The treasurer collects dues in January.")
	store := newFakeStore(&doc)
	gen := &fakeGenerator{available: true, err: errors.New("quota exceeded")}
	a := testAssembler(store, gen)

	answer, err := a.Ask(context.Background(), "Who is the treasurer?")
	if err != nil {
		t.Fatalf("generator failure must not surface: %v", err)
	}
	if !strings.Contains(answer.Text, "Bob is the treasurer") {
		t.Errorf("expected deterministic fallback, got %q", answer.Text)
	}
	if len(answer.Sources) == 0 {
		t.Error("fallback answer must keep citations")
	}
	if !answer.GeneratorFallback {
		t.Error("answer should report the generator fallback")
	}
}

func TestAskFallbackCapsDirectAnswers(t *testing.T) {
	long := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		long = append(long, "The treasurer reconciles the club budget accounts monthly without fail.")
	}
	doc := chunkedDoc("doc1", "Ledger", strings.Join(long, " "))
	store := newFakeStore(&doc)
	a := testAssembler(store, nil)

	answer, err := a.Ask(context.Background(), "Who is the treasurer?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if len(answer.Text) > 800 {
		t.Errorf("direct answer too long: %d chars", len(answer.Text))
	}
}

func TestDetectAnswerStyle(t *testing.T) {
	cases := map[string]AnswerStyle{
		"Who is the treasurer?":            StyleDirect,
		"How many members are there?":      StyleDirect,
		"Explain the election process":     StyleElaborated,
		"Tell me about the club history":   StyleElaborated,
		"Describe the committee structure": StyleElaborated,
	}
	for query, want := range cases {
		if got := DetectAnswerStyle(query); got != want {
			t.Errorf("DetectAnswerStyle(%q) = %q, want %q", query, got, want)
		}
	}
}

func TestSearchReturnsRankedResults(t *testing.T) {
	docA := chunkedDoc("docA", "Budget", "The treasurer presented the annual budget to members.")
	docB := chunkedDoc("docB", "Social", "The summer picnic is planned for July at the lake.")
	store := newFakeStore(&docA, &docB)
	a := testAssembler(store, nil)

	results, err := a.Search(context.Background(), "annual budget")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected search results")
	}
	if results[0].DocumentID != "docA" {
		t.Errorf("expected the budget document first, got %s", results[0].DocumentID)
	}
	for _, r := range results {
		if r.Snippet == "" {
			t.Errorf("result %s missing snippet", r.ChunkID)
		}
	}
}

func TestDedupeKeyCollapsesNearDuplicates(t *testing.T) {
	a := dedupeKey("The treasurer collects dues in January.")
	b := dedupeKey("the TREASURER collects dues in January!!")
	if a != b {
		t.Errorf("near-duplicate sentences got different keys: %q vs %q", a, b)
	}
	c := dedupeKey("The secretary records the minutes.")
	if a == c {
		t.Error("distinct sentences collapsed to one key")
	}
}
