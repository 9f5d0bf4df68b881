package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunkDocumentSmallTextSingleChunk(t *testing.T) {
	c := NewChunker(500, 100)
	chunks := c.ChunkDocument("A short paragraph about the club.", "doc1", "Club Notes")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ChunkID != "doc1_chunk_0" {
		t.Errorf("unexpected chunk id: %s", chunks[0].ChunkID)
	}
	if chunks[0].Order != 0 {
		t.Errorf("unexpected order: %d", chunks[0].Order)
	}
	if chunks[0].DocTitle != "Club Notes" {
		t.Errorf("unexpected title: %s", chunks[0].DocTitle)
	}
}

func TestChunkDocumentSplitsOnParagraphs(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 10; i++ {
		paragraphs = append(paragraphs,
			fmt.Sprintf("Paragraph %d. %s", i, strings.Repeat("member dues and meetings. ", 8)))
	}
	content := strings.Join(paragraphs, "\n\n")

	c := NewChunker(500, 100)
	chunks := c.ChunkDocument(content, "doc1", "Minutes")

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for %d chars, got %d", len(content), len(chunks))
	}
	for i, ch := range chunks {
		if ch.Order != i {
			t.Errorf("chunk %d has order %d", i, ch.Order)
		}
		if ch.ChunkID != fmt.Sprintf("doc1_chunk_%d", i) {
			t.Errorf("chunk %d has id %s", i, ch.ChunkID)
		}
		if strings.TrimSpace(ch.Content) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunkDocumentCoversSourceText(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs,
			fmt.Sprintf("Section %d covers the annual budget, elections and committee reports in detail for the year.", i))
	}
	content := strings.Join(paragraphs, "\n\n")

	c := NewChunker(500, 100)
	chunks := c.ChunkDocument(content, "doc1", "Handbook")

	// Every paragraph must appear in some chunk
	for i := 0; i < 20; i++ {
		needle := fmt.Sprintf("Section %d covers", i)
		found := false
		for _, ch := range chunks {
			if strings.Contains(ch.Content, needle) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("paragraph %d missing from all chunks", i)
		}
	}
}

func TestChunkDocumentOverlapSeedsNextChunk(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 8; i++ {
		paragraphs = append(paragraphs,
			fmt.Sprintf("Topic %d. %s", i, strings.Repeat("club policy text here. ", 10)))
	}
	content := strings.Join(paragraphs, "\n\n")

	c := NewChunker(400, 100)
	chunks := c.ChunkDocument(content, "doc1", "Policies")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		tail := tailOf(chunks[i-1].Content, 100)
		if !strings.HasPrefix(chunks[i].Content, strings.TrimSpace(tail)) {
			t.Errorf("chunk %d does not start with the previous chunk's tail", i)
		}
	}
}

func TestChunkDocumentOversizeParagraphStaysWhole(t *testing.T) {
	big := strings.Repeat("One very long paragraph with no blank lines at all. ", 40)

	c := NewChunker(500, 100)
	chunks := c.ChunkDocument(big, "doc1", "Big")

	if len(chunks) != 1 {
		t.Fatalf("expected a single oversize chunk, got %d", len(chunks))
	}
	if len(chunks[0].Content) < len(big)-10 {
		t.Errorf("oversize paragraph was truncated: %d vs %d", len(chunks[0].Content), len(big))
	}
}

func TestChunkDocumentEmptyContent(t *testing.T) {
	c := NewChunker(500, 100)
	if chunks := c.ChunkDocument("", "doc1", "Empty"); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty content, got %d", len(chunks))
	}
	if chunks := c.ChunkDocument("   \n\n  \t ", "doc1", "Blank"); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace content, got %d", len(chunks))
	}
}

func TestChunkDocumentDeterministic(t *testing.T) {
	content := strings.Repeat("The treasurer reports dues monthly.\n\n", 30)
	c := NewChunker(500, 100)

	first := c.ChunkDocument(content, "doc1", "Reports")
	second := c.ChunkDocument(content, "doc1", "Reports")

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content || first[i].ChunkID != second[i].ChunkID {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
