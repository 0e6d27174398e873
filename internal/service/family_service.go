package service

import (
	"errors"
	"fmt"
	"time"

	"satsjar/internal/credentials"
	"satsjar/internal/idgen"
	"satsjar/internal/models"
	"satsjar/internal/repository"
	"satsjar/internal/security"
	"satsjar/internal/validation"
)

var (
	ErrDuplicateChildName = errors.New("a child with this name already exists")
	ErrChildNotFound      = errors.New("child not found")
	ErrNotChildParent     = errors.New("child does not belong to this parent")
	ErrChildLoginFailed   = errors.New("invalid jar id or pin")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// createRetries bounds how often provisioning re-resolves the jar ID after
// losing an insert race on the unique constraint.
const createRetries = 3

// ChildStore is the subset of the child repository used by FamilyService
type ChildStore interface {
	CreateChild(child *models.Child) error
	ChildIDExists(childID string) (bool, error)
	JarIDExists(jarID string) (bool, error)
	GetChildByID(childID string) (*models.Child, error)
	GetChildByJarID(jarID string) (*models.Child, error)
	ListChildrenByParent(parentID string) ([]models.Child, error)
	ListChildrenWithProgress(parentID string) ([]models.ChildWithProgress, error)
	UpdateChildName(childID, name string) error
	UpdateChildPIN(childID, hashedPIN string) error
	DeleteChild(childID string) error
	CreateChildSession(sessionID, childID string, expiresAt time.Time) error
	GetChildSession(sessionID string) (*models.ChildSession, error)
	DeleteChildSession(sessionID string) error
	DeleteExpiredChildSessions() error
}

var _ ChildStore = (*repository.ChildRepository)(nil)

// FamilyService handles child provisioning and child session business logic
type FamilyService struct {
	childStore      ChildStore
	sessionDuration time.Duration
}

// NewFamilyService creates a new family service
func NewFamilyService(childStore ChildStore, sessionDuration time.Duration) *FamilyService {
	return &FamilyService{
		childStore:      childStore,
		sessionDuration: sessionDuration,
	}
}

// ProvisionChild creates a child account under a parent. The child ID is
// derived deterministically from the parent and the normalized name, so the
// same parent cannot register the same name twice. An empty pin asks the
// server to pick one. The returned PIN is the only time the plaintext PIN is
// available.
func (s *FamilyService) ProvisionChild(parentID, name string, age int, pin string) (*models.Child, string, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateAge(age); err != nil {
		return nil, "", err
	}
	if pin != "" {
		if err := validation.ValidatePIN(pin); err != nil {
			return nil, "", err
		}
	}

	childID := idgen.DeriveChildID(parentID, name)

	exists, err := s.childStore.ChildIDExists(childID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check child id: %w", err)
	}
	if exists {
		return nil, "", ErrDuplicateChildName
	}

	if pin == "" {
		var err error
		pin, err = credentials.GeneratePIN()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate pin: %w", err)
		}
	}
	hashedPIN, err := credentials.HashChildPIN(pin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash pin: %w", err)
	}

	candidate := idgen.DeriveJarID(name, parentID, age)

	// The unique constraint on jar_id is the real guard; resolving first
	// just keeps collisions rare. Losing the race means another insert
	// claimed the jar ID between resolve and create, so resolve again.
	var child *models.Child
	for attempt := 0; attempt <= createRetries; attempt++ {
		jarID, err := idgen.ResolveJarID(candidate, s.childStore.JarIDExists)
		if err != nil {
			return nil, "", err
		}

		child = &models.Child{
			ChildID:   childID,
			JarID:     jarID,
			ParentID:  parentID,
			Name:      name,
			Age:       age,
			HashedPIN: hashedPIN,
		}

		err = s.childStore.CreateChild(child)
		if err == nil {
			return child, pin, nil
		}
		if errors.Is(err, repository.ErrDuplicateChild) {
			return nil, "", ErrDuplicateChildName
		}
		if !errors.Is(err, repository.ErrJarIDTaken) {
			return nil, "", fmt.Errorf("failed to create child: %w", err)
		}
	}

	return nil, "", idgen.ErrJarIDExhausted
}

// ListChildren retrieves all children for a parent with their progress counts
func (s *FamilyService) ListChildren(parentID string) ([]models.ChildWithProgress, error) {
	children, err := s.childStore.ListChildrenWithProgress(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// GetChild retrieves a child and verifies it belongs to the parent
func (s *FamilyService) GetChild(parentID, childID string) (*models.Child, error) {
	child, err := s.childStore.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if child.ParentID != parentID {
		return nil, ErrNotChildParent
	}
	return child, nil
}

// RenameChild updates a child's display name. The child ID and jar ID stay
// fixed, so renaming never re-derives identifiers.
func (s *FamilyService) RenameChild(parentID, childID, name string) error {
	if _, err := s.GetChild(parentID, childID); err != nil {
		return err
	}
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if err := s.childStore.UpdateChildName(childID, name); err != nil {
		return fmt.Errorf("failed to rename child: %w", err)
	}
	return nil
}

// RegenerateChildPIN issues a fresh PIN for a child and returns the plaintext
func (s *FamilyService) RegenerateChildPIN(parentID, childID string) (string, error) {
	if _, err := s.GetChild(parentID, childID); err != nil {
		return "", err
	}

	pin, err := credentials.GeneratePIN()
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	hashedPIN, err := credentials.HashChildPIN(pin)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}

	if err := s.childStore.UpdateChildPIN(childID, hashedPIN); err != nil {
		return "", fmt.Errorf("failed to update child pin: %w", err)
	}

	return pin, nil
}

// DeleteChild removes a child account and everything attached to it
func (s *FamilyService) DeleteChild(parentID, childID string) error {
	if _, err := s.GetChild(parentID, childID); err != nil {
		return err
	}
	if err := s.childStore.DeleteChild(childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// ChildLogin authenticates a child by jar ID and PIN and creates a session
func (s *FamilyService) ChildLogin(jarID, pin string) (*models.ChildSession, *models.Child, error) {
	if !idgen.ValidJarID(jarID) {
		return nil, nil, ErrChildLoginFailed
	}

	child, err := s.childStore.GetChildByJarID(jarID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, nil, ErrChildLoginFailed
	}

	if !credentials.VerifyChildPIN(pin, child.HashedPIN) {
		return nil, nil, ErrChildLoginFailed
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	if err := s.childStore.CreateChildSession(sessionID, child.ChildID, expiresAt); err != nil {
		return nil, nil, fmt.Errorf("failed to create child session: %w", err)
	}

	session := &models.ChildSession{
		ID:        sessionID,
		ChildID:   child.ChildID,
		ExpiresAt: expiresAt,
	}
	return session, child, nil
}

// ValidateChildSession checks a session and returns the associated child
func (s *FamilyService) ValidateChildSession(sessionID string) (*models.Child, error) {
	session, err := s.childStore.GetChildSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.childStore.DeleteChildSession(sessionID)
		return nil, ErrSessionExpired
	}

	child, err := s.childStore.GetChildByID(session.ChildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrSessionNotFound
	}

	return child, nil
}

// LogoutChild removes a child session
func (s *FamilyService) LogoutChild(sessionID string) error {
	if err := s.childStore.DeleteChildSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout child: %w", err)
	}
	return nil
}

// CleanupExpiredChildSessions removes expired child sessions
func (s *FamilyService) CleanupExpiredChildSessions() error {
	if err := s.childStore.DeleteExpiredChildSessions(); err != nil {
		return fmt.Errorf("failed to cleanup child sessions: %w", err)
	}
	return nil
}
