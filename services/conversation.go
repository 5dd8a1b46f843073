package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationStore is the conversations/messages side of the document
// store. The message documents' is_read flags are the source of truth
// for unread counts; RecordSend and MarkRead refresh the cached
// per-participant entries on the conversation from them. An insert of
// an already-existing pair reports ErrDuplicateRecord.
type ConversationStore interface {
	ConversationByPair(ctx context.Context, a, b string) (*models.Conversation, error)
	InsertConversation(ctx context.Context, conv *models.Conversation) (string, error)
	ConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	ConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	InsertMessage(ctx context.Context, msg *models.Message) (string, error)
	MessagesForConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	RecordSend(ctx context.Context, conversationID, recipientID string, at time.Time) error
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	UnreadTotal(ctx context.Context, userID string) (int64, error)
}

// ConversationService owns conversation lifecycle and message ordering.
// Timestamps are always server-assigned so the total order within a
// conversation never depends on client clocks.
type ConversationService struct {
	store    ConversationStore
	accounts AccountStore
	maxBytes int64
	now      func() time.Time
}

func NewConversationService(store ConversationStore, accounts AccountStore, maxBytes int64) *ConversationService {
	if maxBytes <= 0 {
		maxBytes = util.DefaultMaxFileSizeBytes
	}
	return &ConversationService{store: store, accounts: accounts, maxBytes: maxBytes, now: time.Now}
}

/*
* Idempotent open of the conversation for an unordered pair.
* Participants are fixed at creation and must be one doctor-type and
* one patient-type account.
 */
func (s *ConversationService) OpenOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	if userA == userB {
		return nil, fmt.Errorf("conversation with self: %w", util.ErrForbiddenOperation)
	}
	a, err := s.accounts.UserByID(ctx, userA)
	if err != nil {
		return nil, err
	}
	b, err := s.accounts.UserByID(ctx, userB)
	if err != nil {
		return nil, err
	}
	pair := map[string]bool{a.UserType: true, b.UserType: true}
	if !pair[util.UserTypeDoctor] || !pair[util.UserTypePatient] {
		return nil, fmt.Errorf("conversation requires one doctor and one patient: %w", util.ErrForbiddenOperation)
	}

	if conv, err := s.store.ConversationByPair(ctx, userA, userB); err == nil {
		return conv, nil
	} else if !isNotFound(err) {
		return nil, err
	}

	created := s.now().UTC()
	conv := &models.Conversation{
		Participants: []string{userA, userB},
		CreatedAt:    created,
		LastActivity: created,
		MessageCount: 0,
		Unread:       map[string]int64{userA: 0, userB: 0},
	}
	id, err := s.store.InsertConversation(ctx, conv)
	if errors.Is(err, util.ErrDuplicateRecord) {
		// Lost the race against a concurrent open of the same pair.
		return s.store.ConversationByPair(ctx, userA, userB)
	}
	if err != nil {
		return nil, err
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		conv.ID = oid
	}
	return conv, nil
}

// SendText appends a text message.
func (s *ConversationService) SendText(ctx context.Context, conversationID, senderID, text string) (string, error) {
	return s.send(ctx, conversationID, senderID, &models.Message{
		MessageType: util.MessageTypeText,
		Text:        text,
	})
}

// SendImage appends an inline binary image message.
func (s *ConversationService) SendImage(ctx context.Context, conversationID, senderID, filename string, data []byte) (string, error) {
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%d bytes over %d limit: %w", len(data), s.maxBytes, util.ErrPayloadTooLarge)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return s.send(ctx, conversationID, senderID, &models.Message{
		MessageType:   util.MessageTypeImage,
		ImageData:     data,
		ImageFilename: filename,
		ImageMimeType: mimeType,
		ImageSize:     int64(len(data)),
	})
}

func (s *ConversationService) send(ctx context.Context, conversationID, senderID string, msg *models.Message) (string, error) {
	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return "", err
	}
	recipient, err := otherParticipant(conv, senderID)
	if err != nil {
		return "", err
	}

	msg.ConversationID = conversationID
	msg.SenderID = senderID
	msg.Timestamp = s.now().UTC()
	msg.IsRead = false

	id, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return "", err
	}
	if err := s.store.RecordSend(ctx, conversationID, recipient, msg.Timestamp); err != nil {
		return "", err
	}
	return id, nil
}

// ListMessages returns the conversation's messages ascending by their
// server-assigned timestamp.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, requesterID string) ([]models.Message, error) {
	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := otherParticipant(conv, requesterID); err != nil {
		return nil, err
	}
	return s.store.MessagesForConversation(ctx, conversationID)
}

// MarkRead acknowledges everything addressed to the user and zeroes
// their unread count for the conversation.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if _, err := otherParticipant(conv, userID); err != nil {
		return 0, err
	}
	return s.store.MarkRead(ctx, conversationID, userID, s.now().UTC())
}

// ConversationsForUser lists the user's conversations, newest activity
// first, with the other participant's account details attached.
func (s *ConversationService) ConversationsForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	convs, err := s.store.ConversationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := []models.ConversationSummary{}
	for _, conv := range convs {
		otherID, err := otherParticipant(&conv, userID)
		if err != nil {
			continue
		}
		other, err := s.accounts.UserByID(ctx, otherID)
		if err != nil {
			continue
		}
		summaries = append(summaries, models.ConversationSummary{
			ID:             conv.ID.Hex(),
			LastActivity:   conv.LastActivity,
			MessageCount:   conv.MessageCount,
			Unread:         conv.Unread[userID],
			OtherID:        otherID,
			OtherUsername:  other.Username,
			OtherFirstName: other.FirstName,
			OtherLastName:  other.LastName,
			OtherUserType:  other.UserType,
		})
	}
	return summaries, nil
}

func (s *ConversationService) UnreadTotal(ctx context.Context, userID string) (int64, error) {
	return s.store.UnreadTotal(ctx, userID)
}

// otherParticipant returns the counterpart of userID, or
// ErrForbiddenOperation if userID is not in the conversation.
func otherParticipant(conv *models.Conversation, userID string) (string, error) {
	found := false
	other := ""
	for _, p := range conv.Participants {
		if p == userID {
			found = true
		} else {
			other = p
		}
	}
	if !found || other == "" {
		return "", fmt.Errorf("user %s not in conversation: %w", userID, util.ErrForbiddenOperation)
	}
	return other, nil
}
