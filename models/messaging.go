package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash []byte             `json:"-" bson:"password_hash"`
	UserType     string             `json:"userType" bson:"user_type"`
	ExternalID   int64              `json:"externalId,omitempty" bson:"external_id,omitempty"`
	FirstName    string             `json:"firstName" bson:"first_name"`
	LastName     string             `json:"lastName" bson:"last_name"`
	IsActive     bool               `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`

	ProfileImage     []byte `json:"-" bson:"profile_image,omitempty"`
	ProfileImageMime string `json:"profileImageMime,omitempty" bson:"profile_image_mime,omitempty"`
}

type Session struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expires_at"`
	IsActive  bool               `json:"isActive" bson:"is_active"`
}

// Conversation holds exactly two participants, fixed at creation.
// PairKey is the sorted participant pair; a unique index on it makes
// creation idempotent under concurrent opens. Unread caches, per
// participant, the count of messages still flagged unread; the store
// refreshes it from the message flags on every send and mark-read.
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Participants []string           `json:"participants" bson:"participants"`
	PairKey      string             `json:"-" bson:"pair_key"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	LastActivity time.Time          `json:"lastActivity" bson:"last_activity"`
	MessageCount int64              `json:"messageCount" bson:"message_count"`
	Unread       map[string]int64   `json:"unread" bson:"unread"`
}

type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID string             `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	Timestamp      time.Time          `json:"timestamp" bson:"timestamp"`
	MessageType    string             `json:"messageType" bson:"message_type"`
	Text           string             `json:"text,omitempty" bson:"message_text,omitempty"`
	ImageData      []byte             `json:"imageData,omitempty" bson:"image_data,omitempty"`
	ImageFilename  string             `json:"imageFilename,omitempty" bson:"image_filename,omitempty"`
	ImageMimeType  string             `json:"imageMimeType,omitempty" bson:"image_mime_type,omitempty"`
	ImageSize      int64              `json:"imageSize,omitempty" bson:"image_size,omitempty"`
	IsRead         bool               `json:"isRead" bson:"is_read"`
	ReadAt         time.Time          `json:"readAt,omitempty" bson:"read_at,omitempty"`
}

// ConversationSummary is what the conversation list shows: the other
// participant plus activity data, newest activity first.
type ConversationSummary struct {
	ID             string    `json:"id"`
	LastActivity   time.Time `json:"lastActivity"`
	MessageCount   int64     `json:"messageCount"`
	Unread         int64     `json:"unread"`
	OtherID        string    `json:"otherId"`
	OtherUsername  string    `json:"otherUsername"`
	OtherFirstName string    `json:"otherFirstName"`
	OtherLastName  string    `json:"otherLastName"`
	OtherUserType  string    `json:"otherUserType"`
}
