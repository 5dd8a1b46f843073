package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo wraps the messaging document store. Collections map 1:1 to the
// messaging entities: users, user_sessions, conversations, messages.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context) (*Mongo, error) {
	uri := util.GetEnv("MONGODB_URI", "mongodb://localhost:27017/?directConnection=true")
	database := util.GetEnv("MONGODB_DATABASE", "clinic_messaging")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(database)}
	if err := m.ensureIndexes(ctx); err != nil {
		log.Println("Warning: could not create indexes:", err)
	}
	log.Println("Connected to MongoDB database:", database)
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) {
	if err := m.client.Disconnect(ctx); err != nil {
		log.Println("Error closing mongodb client:", err)
	}
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	users := m.db.Collection(util.UsersCollection)
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	// One account per clinical identity. Partial so nurse accounts
	// without an external id do not collide.
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"external_id": bson.M{"$exists": true}}),
	}); err != nil {
		return err
	}
	messages := m.db.Collection(util.MessagesCollection)
	if _, err := messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "timestamp", Value: 1}},
	}); err != nil {
		return err
	}
	conversations := m.db.Collection(util.ConversationsCollection)
	if _, err := conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}},
	}); err != nil {
		return err
	}
	// One conversation per unordered pair; concurrent opens race on the
	// insert and the loser re-fetches.
	if _, err := conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	sessions := m.db.Collection(util.SessionsCollection)
	_, err := sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%q: %w", id, util.ErrNotFound)
	}
	return oid, nil
}

// ---- users ----

func (m *Mongo) InsertUser(ctx context.Context, user *models.User) (string, error) {
	res, err := m.db.Collection(util.UsersCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", util.ErrUsernameTaken
		}
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := m.db.Collection(util.UsersCollection).FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Mongo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username, "is_active": true})
}

func (m *Mongo) UserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return m.findUser(ctx, bson.M{"_id": oid})
}

func (m *Mongo) UserByExternal(ctx context.Context, userType string, externalID int64) (*models.User, error) {
	return m.findUser(ctx, bson.M{"user_type": userType, "external_id": externalID})
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, set map[string]any) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := m.db.Collection(util.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return util.ErrUsernameTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return util.ErrNotFound
	}
	return nil
}

func (m *Mongo) SearchUsers(ctx context.Context, query, userType string, limit int64) ([]models.User, error) {
	filter := bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"username": bson.M{"$regex": query, "$options": "i"}},
			{"first_name": bson.M{"$regex": query, "$options": "i"}},
			{"last_name": bson.M{"$regex": query, "$options": "i"}},
		},
	}
	if userType != "" {
		filter["user_type"] = userType
	}
	cur, err := m.db.Collection(util.UsersCollection).Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ---- sessions ----

func (m *Mongo) InsertSession(ctx context.Context, session *models.Session) (string, error) {
	res, err := m.db.Collection(util.SessionsCollection).InsertOne(ctx, session)
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var session models.Session
	err = m.db.Collection(util.SessionsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *Mongo) DeleteSession(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := m.db.Collection(util.SessionsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return util.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.db.Collection(util.SessionsCollection).DeleteMany(ctx,
		bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ---- conversations and messages ----

// pairKey is the canonical identity of an unordered participant pair.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (m *Mongo) ConversationByPair(ctx context.Context, a, b string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.db.Collection(util.ConversationsCollection).FindOne(ctx,
		bson.M{"pair_key": pairKey(a, b)}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (m *Mongo) InsertConversation(ctx context.Context, conv *models.Conversation) (string, error) {
	conv.PairKey = pairKey(conv.Participants[0], conv.Participants[1])
	res, err := m.db.Collection(util.ConversationsCollection).InsertOne(ctx, conv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", util.ErrDuplicateRecord
		}
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var conv models.Conversation
	err = m.db.Collection(util.ConversationsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (m *Mongo) ConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	cur, err := m.db.Collection(util.ConversationsCollection).Find(ctx,
		bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var convs []models.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (m *Mongo) InsertMessage(ctx context.Context, msg *models.Message) (string, error) {
	res, err := m.db.Collection(util.MessagesCollection).InsertOne(ctx, msg)
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) MessagesForConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	cur, err := m.db.Collection(util.MessagesCollection).Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// unreadCount counts the messages in a conversation still unread by
// the given participant. The message flags are the source of truth;
// the conversation document only caches this number.
func (m *Mongo) unreadCount(ctx context.Context, conversationID, userID string) (int64, error) {
	return m.db.Collection(util.MessagesCollection).CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": userID},
		"is_read":         false,
	})
}

// RecordSend refreshes the conversation's bookkeeping after a message
// insert: message_count and the recipient's unread entry are recounted
// from the messages collection rather than incremented, so a MarkRead
// interleaved between insert and refresh converges instead of drifting.
func (m *Mongo) RecordSend(ctx context.Context, conversationID, recipientID string, at time.Time) error {
	oid, err := objectID(conversationID)
	if err != nil {
		return err
	}
	total, err := m.db.Collection(util.MessagesCollection).CountDocuments(ctx,
		bson.M{"conversation_id": conversationID})
	if err != nil {
		return err
	}
	unread, err := m.unreadCount(ctx, conversationID, recipientID)
	if err != nil {
		return err
	}
	res, err := m.db.Collection(util.ConversationsCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"message_count":         total,
			"unread." + recipientID: unread,
			"last_activity":         at,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return util.ErrNotFound
	}
	return nil
}

// MarkRead flips is_read on every message addressed to the reader, then
// refreshes the reader's unread entry from a recount of what is still
// unread. Messages first: a send landing in between is picked up by the
// recount.
func (m *Mongo) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	oid, err := objectID(conversationID)
	if err != nil {
		return 0, err
	}
	upd, err := m.db.Collection(util.MessagesCollection).UpdateMany(ctx,
		bson.M{
			"conversation_id": conversationID,
			"sender_id":       bson.M{"$ne": readerID},
			"is_read":         false,
		},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}})
	if err != nil {
		return 0, err
	}
	unread, err := m.unreadCount(ctx, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	res, err := m.db.Collection(util.ConversationsCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"unread." + readerID: unread}})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, util.ErrNotFound
	}
	return upd.ModifiedCount, nil
}

func (m *Mongo) UnreadTotal(ctx context.Context, userID string) (int64, error) {
	convs, err := m.ConversationsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, conv := range convs {
		total += conv.Unread[userID]
	}
	return total, nil
}
