package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"satsjar/internal/credentials"
	"satsjar/internal/models"
	"satsjar/internal/repository"
	"satsjar/internal/security"
	"satsjar/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPINNotSet          = errors.New("savings PIN not set")
	ErrPINMismatch        = errors.New("savings PIN does not match")
)

// AuthService handles parent authentication business logic
type AuthService struct {
	parentRepo    *repository.ParentRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(parentRepo *repository.ParentRepository, jwtSecret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		parentRepo:    parentRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
	}
}

// Register creates a new parent account
func (s *AuthService) Register(email, password, name string) (*models.Parent, error) {
	// Validate inputs
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	// Check if email already exists
	existing, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing parent: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	// Hash password
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	parent, err := s.parentRepo.CreateParent(uuid.NewString(), email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	return parent, nil
}

// Login authenticates a parent and issues a signed token
func (s *AuthService) Login(email, password string) (string, *models.Parent, error) {
	parent, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return "", nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, parent.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(parent.ID)
	if err != nil {
		return "", nil, err
	}

	return token, parent, nil
}

// ValidateToken verifies a token and returns the associated parent
func (s *AuthService) ValidateToken(tokenString string) (*models.Parent, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	parent, err := s.parentRepo.GetParentByID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrInvalidToken
	}

	return parent, nil
}

// OAuthLogin authenticates or creates a parent using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, emailService *EmailService, provider, subject, email, name string) (string, *models.Parent, error) {
	if provider == "" || subject == "" {
		return "", nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return "", nil, err
	}

	parent, err := s.parentRepo.GetParentByOAuth(provider, subject)
	if err != nil {
		return "", nil, fmt.Errorf("failed to lookup oauth parent: %w", err)
	}

	if parent == nil {
		existing, err := s.parentRepo.GetParentByEmail(email)
		if err != nil {
			return "", nil, fmt.Errorf("failed to check existing parent: %w", err)
		}
		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
				return "", nil, ErrEmailTaken
			}
			if err := s.parentRepo.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
				return "", nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			parent = existing
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			// OAuth accounts get an unusable random password
			randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
			if err != nil {
				return "", nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
			}
			created, err := s.parentRepo.CreateParent(uuid.NewString(), email, randomPasswordHash, name)
			if err != nil {
				return "", nil, fmt.Errorf("failed to create oauth parent: %w", err)
			}
			if err := s.parentRepo.LinkOAuthProvider(created.ID, provider, subject); err != nil {
				return "", nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			parent = created

			if emailService != nil && emailService.IsEnabled() {
				if err := emailService.SendWelcomeEmail(ctx, parent.Email, parent.Name); err != nil {
					log.Printf("Warning: failed to send welcome email to %s: %v", parent.Email, err)
				}
			}
		}
	}

	token, err := s.issueToken(parent.ID)
	if err != nil {
		return "", nil, err
	}

	return token, parent, nil
}

// SetSavingsPIN stores a digest of the parent's savings PIN
func (s *AuthService) SetSavingsPIN(parentID, pin string) error {
	if err := validation.ValidatePIN(pin); err != nil {
		return err
	}

	rec := credentials.Stored{
		Kind:  credentials.KindDigest,
		Value: credentials.DigestPIN(pin),
	}
	if err := s.parentRepo.SetSavingsPIN(parentID, rec); err != nil {
		return fmt.Errorf("failed to set savings pin: %w", err)
	}
	return nil
}

// VerifySavingsPIN checks a candidate PIN against the parent's stored
// credential. Legacy plaintext credentials are upgraded to digests on the
// first successful verification.
func (s *AuthService) VerifySavingsPIN(parentID, pin string) error {
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return ErrInvalidToken
	}
	if !parent.HasSavingsPIN() {
		return ErrPINNotSet
	}

	if !credentials.VerifyParentPIN(pin, parent.PINCredential) {
		return ErrPINMismatch
	}

	if parent.PINCredential.Kind == credentials.KindLegacyPlaintext {
		upgraded := credentials.Stored{
			Kind:  credentials.KindDigest,
			Value: credentials.DigestPIN(pin),
		}
		if err := s.parentRepo.SetSavingsPIN(parentID, upgraded); err != nil {
			return fmt.Errorf("failed to upgrade savings pin: %w", err)
		}
	}

	return nil
}

// ChangePassword updates a parent's password after checking the current one
func (s *AuthService) ChangePassword(parentID, currentPassword, newPassword string) error {
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return ErrInvalidToken
	}

	if !security.CheckPassword(currentPassword, parent.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.parentRepo.UpdatePassword(parentID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// DeleteAccount removes a parent and, through foreign keys, every child
// account under it. The current password must be presented.
func (s *AuthService) DeleteAccount(parentID, password string) error {
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return ErrInvalidToken
	}

	if !security.CheckPassword(password, parent.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := s.parentRepo.DeleteParent(parentID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AuthService) issueToken(parentID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   parentID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
