package repository

import (
	"database/sql"
	"fmt"
	"time"

	"satsjar/internal/credentials"
	"satsjar/internal/database"
	"satsjar/internal/models"
)

// ParentRepository handles database operations for parent accounts
type ParentRepository struct {
	db *database.DB
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db *database.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = `id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), COALESCE(pin_kind, ''), COALESCE(pin_value, ''), created_at, updated_at`

// CreateParent inserts a new parent into the database
func (r *ParentRepository) CreateParent(id, email, passwordHash, name string) (*models.Parent, error) {
	query := `
		INSERT INTO parents (id, email, password_hash, name)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, id, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	parent := &models.Parent{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	return parent, nil
}

func (r *ParentRepository) scanParent(row *sql.Row) (*models.Parent, error) {
	parent := &models.Parent{}
	var pinKind, pinValue string
	err := row.Scan(
		&parent.ID,
		&parent.Email,
		&parent.PasswordHash,
		&parent.Name,
		&parent.OAuthProvider,
		&parent.OAuthSubject,
		&pinKind,
		&pinValue,
		&parent.CreatedAt,
		&parent.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parent.PINCredential = credentials.Stored{
		Kind:  credentials.Kind(pinKind),
		Value: pinValue,
	}
	return parent, nil
}

// GetParentByEmail retrieves a parent by email address
func (r *ParentRepository) GetParentByEmail(email string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE email = ?`
	parent, err := r.scanParent(r.db.QueryRow(query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(id string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE id = ?`
	parent, err := r.scanParent(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

// GetParentByOAuth retrieves a parent by OAuth provider and subject
func (r *ParentRepository) GetParentByOAuth(provider, subject string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE oauth_provider = ? AND oauth_subject = ?`
	parent, err := r.scanParent(r.db.QueryRow(query, provider, subject))
	if err != nil {
		return nil, fmt.Errorf("failed to get parent by oauth: %w", err)
	}
	return parent, nil
}

// LinkOAuthProvider links an existing parent to an OAuth provider
func (r *ParentRepository) LinkOAuthProvider(parentID, provider, subject string) error {
	query := `
		UPDATE parents
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, parentID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}

	return nil
}

// SetSavingsPIN stores a parent's savings PIN credential. New records always
// use the digest kind; the legacy plaintext kind exists only in rows written
// before the hashing migration.
func (r *ParentRepository) SetSavingsPIN(parentID string, rec credentials.Stored) error {
	query := `
		UPDATE parents
		SET pin_kind = ?, pin_value = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, string(rec.Kind), rec.Value, parentID)
	if err != nil {
		return fmt.Errorf("failed to set savings pin: %w", err)
	}
	return nil
}

// UpdatePassword updates a parent's password hash
func (r *ParentRepository) UpdatePassword(parentID, passwordHash string) error {
	query := `
		UPDATE parents
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, passwordHash, parentID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteParent deletes a parent and all associated data
func (r *ParentRepository) DeleteParent(id string) error {
	query := "DELETE FROM parents WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete parent: %w", err)
	}
	return nil
}
