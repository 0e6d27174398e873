package repository

import (
	"database/sql"
	"fmt"
	"time"

	"satsjar/internal/database"
	"satsjar/internal/models"
)

// LessonRepository handles database operations for lessons and progress
type LessonRepository struct {
	db *database.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *database.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// CreateLesson inserts a new lesson
func (r *LessonRepository) CreateLesson(title, summary, content string, ordinal int) (*models.Lesson, error) {
	query := `
		INSERT INTO lessons (title, summary, content, ordinal)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, title, summary, content, ordinal)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return &models.Lesson{
		ID:        id,
		Title:     title,
		Summary:   summary,
		Content:   content,
		Ordinal:   ordinal,
		CreatedAt: time.Now(),
	}, nil
}

// CountLessons returns the number of lessons in the system
func (r *LessonRepository) CountLessons() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// GetLessonByID retrieves a lesson by ID
func (r *LessonRepository) GetLessonByID(lessonID int64) (*models.Lesson, error) {
	query := `
		SELECT id, title, summary, content, ordinal, created_at
		FROM lessons
		WHERE id = ?
	`
	lesson := &models.Lesson{}
	err := r.db.QueryRow(query, lessonID).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Summary,
		&lesson.Content,
		&lesson.Ordinal,
		&lesson.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return lesson, nil
}

// ListLessons retrieves all lessons in display order
func (r *LessonRepository) ListLessons() ([]models.Lesson, error) {
	query := `
		SELECT id, title, summary, content, ordinal, created_at
		FROM lessons
		ORDER BY ordinal ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.Summary,
			&lesson.Content,
			&lesson.Ordinal,
			&lesson.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	return lessons, nil
}

// ListLessonsWithStatus retrieves all lessons with a child's completion state
func (r *LessonRepository) ListLessonsWithStatus(childID string) ([]models.LessonWithStatus, error) {
	query := `
		SELECT l.id, l.title, l.summary, l.content, l.ordinal, l.created_at,
			CASE WHEN lp.id IS NULL THEN 0 ELSE 1 END
		FROM lessons l
		LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.child_id = ?
		ORDER BY l.ordinal ASC
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons with status: %w", err)
	}
	defer rows.Close()

	var lessons []models.LessonWithStatus
	for rows.Next() {
		var lws models.LessonWithStatus
		if err := rows.Scan(
			&lws.Lesson.ID,
			&lws.Lesson.Title,
			&lws.Lesson.Summary,
			&lws.Lesson.Content,
			&lws.Lesson.Ordinal,
			&lws.Lesson.CreatedAt,
			&lws.Completed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson with status: %w", err)
		}
		lessons = append(lessons, lws)
	}

	return lessons, nil
}

// MarkLessonCompleted records a child completing a lesson. Completing the
// same lesson twice is not an error.
func (r *LessonRepository) MarkLessonCompleted(childID string, lessonID int64) error {
	query := `
		INSERT INTO lesson_progress (child_id, lesson_id)
		VALUES (?, ?)
	`
	_, err := r.db.Exec(query, childID, lessonID)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	return nil
}

// CountCompletedLessons returns how many lessons a child has completed
func (r *LessonRepository) CountCompletedLessons(childID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM lesson_progress WHERE child_id = ?"
	if err := r.db.QueryRow(query, childID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}
