package service

import (
	"errors"
	"fmt"

	"satsjar/internal/models"
	"satsjar/internal/repository"
	"satsjar/internal/validation"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrNotGoalOwner = errors.New("goal does not belong to this child")
)

func validateGoalInput(title string, targetSats int64) error {
	if title == "" {
		return validation.ValidationError{Field: "title", Message: "goal title is required"}
	}
	if targetSats <= 0 {
		return validation.ValidationError{Field: "target_sats", Message: "goal target must be positive"}
	}
	return nil
}

// GoalService handles savings goal business logic
type GoalService struct {
	goalRepo      *repository.GoalRepository
	familyService *FamilyService
}

// NewGoalService creates a new goal service
func NewGoalService(goalRepo *repository.GoalRepository, familyService *FamilyService) *GoalService {
	return &GoalService{
		goalRepo:      goalRepo,
		familyService: familyService,
	}
}

// CreateGoal creates a savings goal for a child, checking parent ownership
func (s *GoalService) CreateGoal(parentID, childID, title string, targetSats int64) (*models.SavingsGoal, error) {
	if _, err := s.familyService.GetChild(parentID, childID); err != nil {
		return nil, err
	}

	if err := validateGoalInput(title, targetSats); err != nil {
		return nil, err
	}

	goal, err := s.goalRepo.CreateGoal(childID, title, targetSats)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

// ListGoals retrieves all goals for a child, checking parent ownership
func (s *GoalService) ListGoals(parentID, childID string) ([]models.SavingsGoal, error) {
	if _, err := s.familyService.GetChild(parentID, childID); err != nil {
		return nil, err
	}
	return s.listGoals(childID)
}

// ListGoalsForChild retrieves a child's own goals from a child session
func (s *GoalService) ListGoalsForChild(childID string) ([]models.SavingsGoal, error) {
	return s.listGoals(childID)
}

func (s *GoalService) listGoals(childID string) ([]models.SavingsGoal, error) {
	goals, err := s.goalRepo.ListGoalsByChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// getOwnedGoal retrieves a goal and verifies it belongs to the child
func (s *GoalService) getOwnedGoal(childID string, goalID int64) (*models.SavingsGoal, error) {
	goal, err := s.goalRepo.GetGoalByID(goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	if goal.ChildID != childID {
		return nil, ErrNotGoalOwner
	}
	return goal, nil
}

// UpdateGoal changes a goal's title and target, checking parent ownership
func (s *GoalService) UpdateGoal(parentID, childID string, goalID int64, title string, targetSats int64) error {
	if _, err := s.familyService.GetChild(parentID, childID); err != nil {
		return err
	}
	goal, err := s.getOwnedGoal(childID, goalID)
	if err != nil {
		return err
	}

	if err := validateGoalInput(title, targetSats); err != nil {
		return err
	}

	if err := s.goalRepo.UpdateGoal(goalID, title, targetSats); err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}

	// Lowering the target can retroactively achieve the goal
	achieved := goal.SavedSats >= targetSats
	if achieved != goal.Achieved {
		if err := s.goalRepo.UpdateGoalSaved(goalID, goal.SavedSats, achieved); err != nil {
			return fmt.Errorf("failed to update goal progress: %w", err)
		}
	}

	return nil
}

// RecordSaved updates how many sats a child has put toward a goal
func (s *GoalService) RecordSaved(parentID, childID string, goalID, savedSats int64) (*models.SavingsGoal, error) {
	if _, err := s.familyService.GetChild(parentID, childID); err != nil {
		return nil, err
	}
	goal, err := s.getOwnedGoal(childID, goalID)
	if err != nil {
		return nil, err
	}

	if savedSats < 0 {
		return nil, validation.ValidationError{Field: "saved_sats", Message: "saved amount cannot be negative"}
	}

	achieved := savedSats >= goal.TargetSats
	if err := s.goalRepo.UpdateGoalSaved(goalID, savedSats, achieved); err != nil {
		return nil, fmt.Errorf("failed to update goal progress: %w", err)
	}

	goal.SavedSats = savedSats
	goal.Achieved = achieved
	return goal, nil
}

// DeleteGoal removes a goal, checking parent ownership
func (s *GoalService) DeleteGoal(parentID, childID string, goalID int64) error {
	if _, err := s.familyService.GetChild(parentID, childID); err != nil {
		return err
	}
	if _, err := s.getOwnedGoal(childID, goalID); err != nil {
		return err
	}

	if err := s.goalRepo.DeleteGoal(goalID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
