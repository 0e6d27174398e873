package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"satsjar/internal/database"
	"satsjar/internal/models"
)

var (
	// ErrDuplicateChild means a child record already exists at the derived
	// child ID, i.e. the parent already has a child with this name.
	ErrDuplicateChild = errors.New("child already exists")

	// ErrJarIDTaken means the jar ID hit the unique constraint, which can
	// happen when two provisioning calls race to the same resolved ID.
	ErrJarIDTaken = errors.New("jar ID already taken")
)

// ChildRepository handles database operations for child jar accounts
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

const childColumns = `child_id, jar_id, parent_id, name, age, hashed_pin, balance_sats, created_at, updated_at`

// CreateChild inserts a new child record. The insert itself is the existence
// check: a conflict on the child_id primary key maps to ErrDuplicateChild and
// a conflict on the jar_id unique index maps to ErrJarIDTaken, so there is no
// window between a separate lookup and the write.
func (r *ChildRepository) CreateChild(child *models.Child) error {
	query := `
		INSERT INTO children (child_id, jar_id, parent_id, name, age, hashed_pin, balance_sats)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		child.ChildID,
		child.JarID,
		child.ParentID,
		child.Name,
		child.Age,
		child.HashedPIN,
		child.BalanceSats,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			if strings.Contains(err.Error(), "jar_id") {
				return ErrJarIDTaken
			}
			return ErrDuplicateChild
		}
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

// ChildIDExists checks whether a child record exists at the given ID
func (r *ChildRepository) ChildIDExists(childID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM children WHERE child_id = ?"
	if err := r.db.QueryRow(query, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check child ID: %w", err)
	}
	return count > 0, nil
}

// JarIDExists checks whether a jar ID is already in use
func (r *ChildRepository) JarIDExists(jarID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM children WHERE jar_id = ?"
	if err := r.db.QueryRow(query, jarID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check jar ID: %w", err)
	}
	return count > 0, nil
}

func scanChild(row *sql.Row) (*models.Child, error) {
	child := &models.Child{}
	err := row.Scan(
		&child.ChildID,
		&child.JarID,
		&child.ParentID,
		&child.Name,
		&child.Age,
		&child.HashedPIN,
		&child.BalanceSats,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return child, nil
}

// GetChildByID retrieves a child by its child ID
func (r *ChildRepository) GetChildByID(childID string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE child_id = ?`
	child, err := scanChild(r.db.QueryRow(query, childID))
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetChildByJarID retrieves a child by its jar ID
func (r *ChildRepository) GetChildByJarID(jarID string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE jar_id = ?`
	child, err := scanChild(r.db.QueryRow(query, jarID))
	if err != nil {
		return nil, fmt.Errorf("failed to get child by jar ID: %w", err)
	}
	return child, nil
}

// ListChildrenByParent retrieves all children belonging to a parent
func (r *ChildRepository) ListChildrenByParent(parentID string) ([]models.Child, error) {
	query := `
		SELECT ` + childColumns + `
		FROM children
		WHERE parent_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var child models.Child
		if err := rows.Scan(
			&child.ChildID,
			&child.JarID,
			&child.ParentID,
			&child.Name,
			&child.Age,
			&child.HashedPIN,
			&child.BalanceSats,
			&child.CreatedAt,
			&child.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	return children, nil
}

// ListChildrenWithProgress retrieves all children of a parent with their goal
// and lesson counts
func (r *ChildRepository) ListChildrenWithProgress(parentID string) ([]models.ChildWithProgress, error) {
	query := `
		SELECT ` + childColumns + `,
			(SELECT COUNT(*) FROM goals g WHERE g.child_id = children.child_id),
			(SELECT COUNT(*) FROM goals g WHERE g.child_id = children.child_id AND g.achieved = ?),
			(SELECT COUNT(*) FROM lesson_progress lp WHERE lp.child_id = children.child_id)
		FROM children
		WHERE parent_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, true, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children with progress: %w", err)
	}
	defer rows.Close()

	var result []models.ChildWithProgress
	for rows.Next() {
		var cwp models.ChildWithProgress
		if err := rows.Scan(
			&cwp.Child.ChildID,
			&cwp.Child.JarID,
			&cwp.Child.ParentID,
			&cwp.Child.Name,
			&cwp.Child.Age,
			&cwp.Child.HashedPIN,
			&cwp.Child.BalanceSats,
			&cwp.Child.CreatedAt,
			&cwp.Child.UpdatedAt,
			&cwp.GoalCount,
			&cwp.AchievedGoals,
			&cwp.CompletedLessons,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child with progress: %w", err)
		}
		result = append(result, cwp)
	}

	return result, nil
}

// UpdateChildName updates a child's display name. The child ID is not
// re-derived; it stays pinned to the name the account was created with.
func (r *ChildRepository) UpdateChildName(childID, name string) error {
	query := "UPDATE children SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE child_id = ?"
	_, err := r.db.Exec(query, name, childID)
	if err != nil {
		return fmt.Errorf("failed to update child name: %w", err)
	}
	return nil
}

// UpdateChildPIN replaces a child's hashed PIN
func (r *ChildRepository) UpdateChildPIN(childID, hashedPIN string) error {
	query := "UPDATE children SET hashed_pin = ?, updated_at = CURRENT_TIMESTAMP WHERE child_id = ?"
	_, err := r.db.Exec(query, hashedPIN, childID)
	if err != nil {
		return fmt.Errorf("failed to update child PIN: %w", err)
	}
	return nil
}

// DeleteChild deletes a child account
func (r *ChildRepository) DeleteChild(childID string) error {
	query := "DELETE FROM children WHERE child_id = ?"
	_, err := r.db.Exec(query, childID)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// CreateChildSession creates a new session for a child
func (r *ChildRepository) CreateChildSession(sessionID, childID string, expiresAt time.Time) error {
	query := `
		INSERT INTO child_sessions (id, child_id, expires_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.Exec(query, sessionID, childID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create child session: %w", err)
	}
	return nil
}

// GetChildSession retrieves a child session by ID
func (r *ChildRepository) GetChildSession(sessionID string) (*models.ChildSession, error) {
	query := `
		SELECT id, child_id, expires_at, created_at
		FROM child_sessions
		WHERE id = ?
	`
	session := &models.ChildSession{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.ChildID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child session: %w", err)
	}

	return session, nil
}

// DeleteChildSession removes a child session
func (r *ChildRepository) DeleteChildSession(sessionID string) error {
	query := "DELETE FROM child_sessions WHERE id = ?"
	_, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete child session: %w", err)
	}
	return nil
}

// DeleteExpiredChildSessions removes all expired child sessions
func (r *ChildRepository) DeleteExpiredChildSessions() error {
	query := "DELETE FROM child_sessions WHERE expires_at < ?"
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired child sessions: %w", err)
	}
	return nil
}
