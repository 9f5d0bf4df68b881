package services

import (
	"regexp"
	"strings"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// Chunker splits document text into overlapping, bounded fragments.
// It is a pure function over its inputs; persisting the result is the
// caller's job.
type Chunker struct {
	chunkSize      int
	overlap        int
	paragraphRegex *regexp.Regexp
	sentenceRegex  *regexp.Regexp
}

// NewChunker creates a chunker with the given soft size target and overlap.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{
		chunkSize:      chunkSize,
		overlap:        overlap,
		paragraphRegex: regexp.MustCompile(`\n\s*\n`),
		sentenceRegex:  regexp.MustCompile(`[.!?]+`),
	}
}

// ChunkDocument splits content into ordered chunks. Paragraph boundaries
// are preferred; when paragraph splitting yields nothing usable the text
// is re-split on sentence terminators. A single paragraph longer than the
// size target stays whole in one chunk, the size bound is a soft target.
func (c *Chunker) ChunkDocument(content, docID, title string) []models.Chunk {
	paragraphs := filterEmpty(c.paragraphRegex.Split(content, -1))

	pieces := c.accumulate(paragraphs)
	if len(pieces) == 0 {
		pieces = c.accumulate(filterEmpty(c.splitSentences(content)))
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, models.Chunk{
			ChunkID:  models.ChunkID(docID, i),
			DocID:    docID,
			DocTitle: title,
			Content:  text,
			Order:    i,
		})
	}
	return chunks
}

// accumulate greedily packs pieces into buffers below the size target,
// sealing a buffer on overflow and seeding the next one with the trailing
// overlap of the sealed text to preserve boundary context.
func (c *Chunker) accumulate(pieces []string) []string {
	var sealed []string
	buffer := new(strings.Builder)

	seal := func() {
		text := strings.TrimSpace(buffer.String())
		if text == "" {
			return
		}
		sealed = append(sealed, text)
		buffer.Reset()
		if c.overlap > 0 {
			buffer.WriteString(tailOf(text, c.overlap))
		}
	}

	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if buffer.Len() > 0 && buffer.Len()+len(piece) >= c.chunkSize {
			seal()
		}
		if buffer.Len() > 0 {
			buffer.WriteString("\n\n")
		}
		buffer.WriteString(piece)
	}

	// Seal the final buffer, without seeding another one
	if final := strings.TrimSpace(buffer.String()); final != "" {
		sealed = append(sealed, final)
	}

	return sealed
}

// splitSentences cuts text after runs of sentence terminators.
func (c *Chunker) splitSentences(text string) []string {
	bounds := c.sentenceRegex.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}

	var sentences []string
	prev := 0
	for _, b := range bounds {
		sentences = append(sentences, text[prev:b[1]])
		prev = b[1]
	}
	if prev < len(text) {
		sentences = append(sentences, text[prev:])
	}
	return sentences
}

// tailOf returns the trailing n bytes of text, or all of it when shorter.
func tailOf(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}

// filterEmpty removes empty strings from slice
func filterEmpty(slice []string) []string {
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if len(strings.TrimSpace(s)) > 0 {
			result = append(result, s)
		}
	}
	return result
}
