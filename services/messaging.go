package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"

	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the users collection as the services consume it.
type AccountStore interface {
	InsertUser(ctx context.Context, user *models.User) (string, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByExternal(ctx context.Context, userType string, externalID int64) (*models.User, error)
	UpdateUser(ctx context.Context, id string, set map[string]any) error
	SearchUsers(ctx context.Context, query, userType string, limit int64) ([]models.User, error)
}

// SessionStore is the user_sessions collection.
type SessionStore interface {
	InsertSession(ctx context.Context, session *models.Session) (string, error)
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// MessagingService owns accounts and sessions: bcrypt credentials,
// fixed-TTL sessions, lazy expiry on validation. Sessions are
// multi-slot: concurrent logins from several devices each get their
// own session document.
type MessagingService struct {
	accounts AccountStore
	sessions SessionStore
	ttl      time.Duration
	maxBytes int64
	now      func() time.Time
}

func NewMessagingService(accounts AccountStore, sessions SessionStore, ttl time.Duration, maxBytes int64) *MessagingService {
	if ttl <= 0 {
		ttl = util.DefaultSessionTTLHours * time.Hour
	}
	if maxBytes <= 0 {
		maxBytes = util.DefaultMaxFileSizeBytes
	}
	return &MessagingService{accounts: accounts, sessions: sessions, ttl: ttl, maxBytes: maxBytes, now: time.Now}
}

func validUserType(userType string) bool {
	return userType == util.UserTypeDoctor || userType == util.UserTypePatient || userType == util.UserTypeNurse
}

/*
* Create a messaging account.
* Only the bcrypt hash of the password is ever stored. externalID 0
* means no clinical link (nurses); linked accounts normally go through
* the bridge's Provision, which checks the clinical side first.
 */
func (s *MessagingService) Register(ctx context.Context, username, password, userType, firstName, lastName string, externalID int64) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", util.ErrInvalidCredentials)
	}
	if !validUserType(userType) {
		return nil, fmt.Errorf("user type %q: %w", userType, util.ErrForbiddenOperation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		UserType:     userType,
		ExternalID:   externalID,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.accounts.InsertUser(ctx, user)
	if err != nil {
		return nil, err
	}
	log.Println("Created messaging account:", username, "("+id+")")
	return s.accounts.UserByID(ctx, id)
}

// Authenticate checks credentials and, on success, opens a session
// with a fixed time-to-live from creation. Unknown user and wrong
// password are indistinguishable to the caller.
func (s *MessagingService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.accounts.UserByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("user %s: %w", username, util.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", nil, fmt.Errorf("user %s: %w", username, util.ErrInvalidCredentials)
	}
	created := s.now().UTC()
	sessionID, err := s.sessions.InsertSession(ctx, &models.Session{
		UserID:    user.ID.Hex(),
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
		IsActive:  true,
	})
	if err != nil {
		return "", nil, err
	}
	return sessionID, user, nil
}

// ValidateSession resolves a session id to its user id. Once
// now > expires_at the session reports SessionExpired and its record
// is eligible for deletion; the cron sweep handles the cleanup.
func (s *MessagingService) ValidateSession(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.SessionByID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", sessionID, util.ErrSessionExpired)
	}
	if !session.IsActive || s.now().UTC().After(session.ExpiresAt) {
		return "", fmt.Errorf("session %s: %w", sessionID, util.ErrSessionExpired)
	}
	return session.UserID, nil
}

// Logout deletes the session. A session that is already gone counts as
// logged out.
func (s *MessagingService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.DeleteSession(ctx, sessionID)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// UploadProfileImage stores the avatar inline on the user document,
// replacing any previous one.
func (s *MessagingService) UploadProfileImage(ctx context.Context, userID, filename string, data []byte) error {
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%d bytes over %d limit: %w", len(data), s.maxBytes, util.ErrPayloadTooLarge)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return s.accounts.UpdateUser(ctx, userID, map[string]any{
		"profile_image":      data,
		"profile_image_mime": mimeType,
	})
}

// ProfileImage returns the stored avatar, ErrNotFound when the user has
// none.
func (s *MessagingService) ProfileImage(ctx context.Context, userID string) ([]byte, string, error) {
	user, err := s.accounts.UserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if len(user.ProfileImage) == 0 {
		return nil, "", fmt.Errorf("no profile image for %s: %w", userID, util.ErrNotFound)
	}
	return user.ProfileImage, user.ProfileImageMime, nil
}

func (s *MessagingService) SearchUsers(ctx context.Context, query, userType string) ([]models.User, error) {
	if userType != "" && !validUserType(userType) {
		return nil, fmt.Errorf("user type %q: %w", userType, util.ErrForbiddenOperation)
	}
	return s.accounts.SearchUsers(ctx, query, userType, 20)
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}
