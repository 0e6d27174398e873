package repository

import (
	"database/sql"
	"fmt"
	"time"

	"satsjar/internal/database"
	"satsjar/internal/models"
)

// GoalRepository handles database operations for savings goals
type GoalRepository struct {
	db *database.DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *database.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// CreateGoal creates a new savings goal for a child
func (r *GoalRepository) CreateGoal(childID, title string, targetSats int64) (*models.SavingsGoal, error) {
	query := `
		INSERT INTO goals (child_id, title, target_sats)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, childID, title, targetSats)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	goal := &models.SavingsGoal{
		ID:         id,
		ChildID:    childID,
		Title:      title,
		TargetSats: targetSats,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return goal, nil
}

// GetGoalByID retrieves a goal by ID
func (r *GoalRepository) GetGoalByID(goalID int64) (*models.SavingsGoal, error) {
	query := `
		SELECT id, child_id, title, target_sats, saved_sats, achieved, created_at, updated_at
		FROM goals
		WHERE id = ?
	`
	goal := &models.SavingsGoal{}
	err := r.db.QueryRow(query, goalID).Scan(
		&goal.ID,
		&goal.ChildID,
		&goal.Title,
		&goal.TargetSats,
		&goal.SavedSats,
		&goal.Achieved,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return goal, nil
}

// ListGoalsByChild retrieves all goals belonging to a child
func (r *GoalRepository) ListGoalsByChild(childID string) ([]models.SavingsGoal, error) {
	query := `
		SELECT id, child_id, title, target_sats, saved_sats, achieved, created_at, updated_at
		FROM goals
		WHERE child_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var goal models.SavingsGoal
		if err := rows.Scan(
			&goal.ID,
			&goal.ChildID,
			&goal.Title,
			&goal.TargetSats,
			&goal.SavedSats,
			&goal.Achieved,
			&goal.CreatedAt,
			&goal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}

	return goals, nil
}

// UpdateGoal updates a goal's title and target
func (r *GoalRepository) UpdateGoal(goalID int64, title string, targetSats int64) error {
	query := `
		UPDATE goals
		SET title = ?, target_sats = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, title, targetSats, goalID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

// UpdateGoalSaved updates the amount saved toward a goal and its achieved flag
func (r *GoalRepository) UpdateGoalSaved(goalID, savedSats int64, achieved bool) error {
	query := `
		UPDATE goals
		SET saved_sats = ?, achieved = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, savedSats, achieved, goalID)
	if err != nil {
		return fmt.Errorf("failed to update goal progress: %w", err)
	}
	return nil
}

// DeleteGoal deletes a savings goal
func (r *GoalRepository) DeleteGoal(goalID int64) error {
	query := "DELETE FROM goals WHERE id = ?"
	_, err := r.db.Exec(query, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
