package models

import "time"

// Citation justifies part of an answer by pointing at the chunk it came from.
type Citation struct {
	DocumentID string  `bson:"document_id" json:"document_id"`
	Title      string  `bson:"title" json:"title"`
	Filename   string  `bson:"filename" json:"filename"`
	Snippet    string  `bson:"snippet" json:"snippet"`
	Score      float64 `bson:"score" json:"score"`
}

type AskRequest struct {
	Query          string `json:"query" binding:"required,min=1,max=2000"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type AskResponse struct {
	Answer         string     `json:"answer"`
	Sources        []Citation `json:"sources"`
	ConversationID string     `json:"conversation_id"`
	Timestamp      time.Time  `json:"timestamp"`
}
