package models

import (
	"fmt"
	"time"
)

// Document statuses
const (
	DocStatusProcessing = "processing"
	DocStatusCompleted  = "completed"
	DocStatusFailed     = "failed"
)

// Document is an uploaded knowledge file with its derived chunks embedded.
type Document struct {
	ID         string    `bson:"id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Filename   string    `bson:"filename" json:"filename"`
	Content    string    `bson:"content" json:"-"`
	FilePath   string    `bson:"file_path" json:"-"`
	Status     string    `bson:"status" json:"status"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	Chunks     []Chunk   `bson:"chunks" json:"-"`
}

// Chunk is a contiguous slice of a document's text, sized for retrieval.
type Chunk struct {
	ChunkID  string `bson:"chunk_id" json:"chunk_id"`
	DocID    string `bson:"doc_id" json:"doc_id"`
	DocTitle string `bson:"doc_title" json:"doc_title"`
	Content  string `bson:"content" json:"content"`
	Order    int    `bson:"order" json:"order"`
}

// ChunkID builds the stable identifier for a document's nth chunk.
func ChunkID(docID string, order int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, order)
}

// UploadResponse is returned after a document upload request.
type UploadResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
}

// SearchResult is one ranked chunk from the document search endpoint.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Filename   string  `json:"filename"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	Order      int     `json:"order"`
}
