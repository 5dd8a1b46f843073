package services

import (
	"context"
	"fmt"

	"ClinicLink360/models"
	"ClinicLink360/util"

	"golang.org/x/crypto/bcrypt"
)

// BridgeService joins the two stores at the application layer: a graph
// Doctor/Patient id plus its user type identifies at most one messaging
// account. The bridge reads the clinical side, never writes it, and no
// operation here spans both stores in one transaction. A clinical
// person with no account is a valid, common state.
type BridgeService struct {
	graph    GraphStore
	accounts AccountStore
}

func NewBridgeService(graph GraphStore, accounts AccountStore) *BridgeService {
	return &BridgeService{graph: graph, accounts: accounts}
}

const existsByLabelCypher = `
MATCH (n:%s {id: $id})
RETURN n.id AS id`

func labelForUserType(userType string) (string, error) {
	switch userType {
	case util.UserTypeDoctor:
		return util.LabelDoctor, nil
	case util.UserTypePatient:
		return util.LabelPatient, nil
	default:
		return "", fmt.Errorf("user type %q has no clinical identity: %w", userType, util.ErrForbiddenOperation)
	}
}

func (s *BridgeService) clinicalExists(ctx context.Context, userType string, externalID int64) error {
	label, err := labelForUserType(userType)
	if err != nil {
		return err
	}
	rows, err := s.graph.ExecRead(ctx, fmt.Sprintf(existsByLabelCypher, label), map[string]any{"id": externalID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %d: %w", userType, externalID, util.ErrNotFound)
	}
	return nil
}

/*
* Create or refresh the messaging account for a clinical person.
* Keyed by (user_type, external_id): an existing link is updated in
* place, never duplicated. The clinical node must already exist; the
* bridge does not create clinical entities.
 */
func (s *BridgeService) Provision(ctx context.Context, userType string, externalID int64, username, password, firstName, lastName string) (*models.User, error) {
	if externalID <= 0 {
		return nil, fmt.Errorf("external id %d: %w", externalID, util.ErrNotFound)
	}
	if err := s.clinicalExists(ctx, userType, externalID); err != nil {
		return nil, err
	}

	existing, err := s.accounts.UserByExternal(ctx, userType, externalID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		set := map[string]any{
			"username":   username,
			"first_name": firstName,
			"last_name":  lastName,
			"is_active":  true,
		}
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			set["password_hash"] = hash
		}
		if err := s.accounts.UpdateUser(ctx, existing.ID.Hex(), set); err != nil {
			return nil, err
		}
		return s.accounts.UserByID(ctx, existing.ID.Hex())
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
	}
	id, err := s.accounts.InsertUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.accounts.UserByID(ctx, id)
}

// Resolve finds the messaging account for a clinical identity.
// UnlinkedIdentity means the front end must provision an account before
// chat becomes available.
func (s *BridgeService) Resolve(ctx context.Context, userType string, externalID int64) (*models.User, error) {
	if _, err := labelForUserType(userType); err != nil {
		return nil, err
	}
	user, err := s.accounts.UserByExternal(ctx, userType, externalID)
	if isNotFound(err) {
		return nil, fmt.Errorf("%s %d: %w", userType, externalID, util.ErrUnlinkedIdentity)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveInverse maps a messaging account back to its clinical
// identity. Accounts without a clinical link (nurses) report
// UnlinkedIdentity.
func (s *BridgeService) ResolveInverse(ctx context.Context, messagingUserID string) (string, int64, error) {
	user, err := s.accounts.UserByID(ctx, messagingUserID)
	if err != nil {
		return "", 0, err
	}
	if user.ExternalID == 0 {
		return "", 0, fmt.Errorf("account %s: %w", messagingUserID, util.ErrUnlinkedIdentity)
	}
	return user.UserType, user.ExternalID, nil
}
