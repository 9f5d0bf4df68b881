package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FromUserID     primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`
	FromName       string             `bson:"from_name" json:"from_name"`
	ToUserID       primitive.ObjectID `bson:"to_user_id,omitempty" json:"to_user_id,omitempty"`
	Message        string             `bson:"message" json:"message"`
	Reply          string             `bson:"reply,omitempty" json:"reply,omitempty"`
	Sources        []Citation         `bson:"sources,omitempty" json:"sources,omitempty"`
	Kind           string             `bson:"kind" json:"kind"` // direct or assistant
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}

// Message kinds
const (
	MessageKindDirect    = "direct"
	MessageKindAssistant = "assistant"
)

type SendMessageRequest struct {
	To      string `json:"to" binding:"required,hexadecimal,len=24"`
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type ResetCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
