package services

import (
	"strings"
	"testing"
)

func TestKnowledgeBaseCapitals(t *testing.T) {
	kb := NewStaticKnowledgeBase()

	answer, ok := kb.Match("What is the capital of France?")
	if !ok {
		t.Fatal("expected a capital match")
	}
	if !strings.Contains(answer, "Paris") {
		t.Errorf("unexpected answer: %q", answer)
	}

	answer, ok = kb.Match("capital city of the united kingdom")
	if !ok || !strings.Contains(answer, "London") {
		t.Errorf("expected London, got %q (ok=%v)", answer, ok)
	}
}

func TestKnowledgeBasePeopleAndDefinitions(t *testing.T) {
	kb := NewStaticKnowledgeBase()

	if answer, ok := kb.Match("Who was Albert Einstein?"); !ok || !strings.Contains(answer, "physicist") {
		t.Errorf("expected Einstein fact, got %q (ok=%v)", answer, ok)
	}
	if answer, ok := kb.Match("Explain photosynthesis"); !ok || !strings.Contains(answer, "light energy") {
		t.Errorf("expected definition, got %q (ok=%v)", answer, ok)
	}
}

func TestKnowledgeBaseNoMatch(t *testing.T) {
	kb := NewStaticKnowledgeBase()

	if answer, ok := kb.Match("What is our club's meeting schedule?"); ok {
		t.Errorf("unexpected match: %q", answer)
	}
	if _, ok := kb.Match(""); ok {
		t.Error("empty query must not match")
	}
}
