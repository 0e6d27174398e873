package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"satsjar/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Parents    []ParentBackup   `json:"parents"`
	Children   []ChildBackup    `json:"children"`
	Goals      []GoalBackup     `json:"goals"`
	Lessons    []LessonBackup   `json:"lessons"`
	Progress   []ProgressBackup `json:"lesson_progress"`
}

// ParentBackup represents a parent record for backup
type ParentBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	PINKind       string    `json:"pin_kind"`
	PINValue      string    `json:"pin_value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChildBackup represents a child record for backup
type ChildBackup struct {
	ChildID     string    `json:"child_id"`
	JarID       string    `json:"jar_id"`
	ParentID    string    `json:"parent_id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	HashedPIN   string    `json:"hashed_pin"`
	BalanceSats int64     `json:"balance_sats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoalBackup represents a savings goal for backup
type GoalBackup struct {
	ID         int64     `json:"id"`
	ChildID    string    `json:"child_id"`
	Title      string    `json:"title"`
	TargetSats int64     `json:"target_sats"`
	SavedSats  int64     `json:"saved_sats"`
	Achieved   bool      `json:"achieved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LessonBackup represents a lesson for backup
type LessonBackup struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Ordinal   int       `json:"ordinal"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressBackup represents a lesson completion record for backup
type ProgressBackup struct {
	ChildID  string `json:"child_id"`
	LessonID int64  `json:"lesson_id"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportParents(backup); err != nil {
		return fmt.Errorf("failed to export parents: %w", err)
	}
	if err := s.exportChildren(backup); err != nil {
		return fmt.Errorf("failed to export children: %w", err)
	}
	if err := s.exportGoals(backup); err != nil {
		return fmt.Errorf("failed to export goals: %w", err)
	}
	if err := s.exportLessons(backup); err != nil {
		return fmt.Errorf("failed to export lessons: %w", err)
	}
	if err := s.exportProgress(backup); err != nil {
		return fmt.Errorf("failed to export lesson progress: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d parents, %d children, %d goals, %d lessons, %d progress records",
		len(backup.Parents), len(backup.Children), len(backup.Goals),
		len(backup.Lessons), len(backup.Progress))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of dependencies
	if err := s.importParents(backup.Parents); err != nil {
		return fmt.Errorf("failed to import parents: %w", err)
	}
	if err := s.importChildren(backup.Children); err != nil {
		return fmt.Errorf("failed to import children: %w", err)
	}
	if err := s.importGoals(backup.Goals); err != nil {
		return fmt.Errorf("failed to import goals: %w", err)
	}
	if err := s.importLessons(backup.Lessons); err != nil {
		return fmt.Errorf("failed to import lessons: %w", err)
	}
	if err := s.importProgress(backup.Progress); err != nil {
		return fmt.Errorf("failed to import lesson progress: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportParents(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), COALESCE(pin_kind, ''), COALESCE(pin_value, ''), created_at, updated_at FROM parents ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ParentBackup
		if err := rows.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Name, &p.OAuthProvider, &p.OAuthSubject, &p.PINKind, &p.PINValue, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		backup.Parents = append(backup.Parents, p)
	}
	return rows.Err()
}

func (s *BackupService) exportChildren(backup *BackupData) error {
	query := "SELECT child_id, jar_id, parent_id, name, age, hashed_pin, balance_sats, created_at, updated_at FROM children ORDER BY child_id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ChildBackup
		if err := rows.Scan(&c.ChildID, &c.JarID, &c.ParentID, &c.Name, &c.Age, &c.HashedPIN, &c.BalanceSats, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		backup.Children = append(backup.Children, c)
	}
	return rows.Err()
}

func (s *BackupService) exportGoals(backup *BackupData) error {
	query := "SELECT id, child_id, title, target_sats, saved_sats, achieved, created_at, updated_at FROM goals ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g GoalBackup
		if err := rows.Scan(&g.ID, &g.ChildID, &g.Title, &g.TargetSats, &g.SavedSats, &g.Achieved, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		backup.Goals = append(backup.Goals, g)
	}
	return rows.Err()
}

func (s *BackupService) exportLessons(backup *BackupData) error {
	query := "SELECT id, title, summary, content, ordinal, created_at FROM lessons ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l LessonBackup
		if err := rows.Scan(&l.ID, &l.Title, &l.Summary, &l.Content, &l.Ordinal, &l.CreatedAt); err != nil {
			return err
		}
		backup.Lessons = append(backup.Lessons, l)
	}
	return rows.Err()
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	query := "SELECT child_id, lesson_id FROM lesson_progress ORDER BY child_id, lesson_id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProgressBackup
		if err := rows.Scan(&p.ChildID, &p.LessonID); err != nil {
			return err
		}
		backup.Progress = append(backup.Progress, p)
	}
	return rows.Err()
}

func (s *BackupService) importParents(parents []ParentBackup) error {
	log.Printf("Importing %d parents...", len(parents))
	for _, p := range parents {
		query := "INSERT INTO parents (id, email, password_hash, name, oauth_provider, oauth_subject, pin_kind, pin_value, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, p.ID, p.Email, p.PasswordHash, p.Name, nullIfEmpty(p.OAuthProvider), nullIfEmpty(p.OAuthSubject), nullIfEmpty(p.PINKind), nullIfEmpty(p.PINValue), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import parent %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importChildren(children []ChildBackup) error {
	log.Printf("Importing %d children...", len(children))
	for _, c := range children {
		query := "INSERT INTO children (child_id, jar_id, parent_id, name, age, hashed_pin, balance_sats, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, c.ChildID, c.JarID, c.ParentID, c.Name, c.Age, c.HashedPIN, c.BalanceSats, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import child %s: %w", c.ChildID, err)
		}
	}
	return nil
}

func (s *BackupService) importGoals(goals []GoalBackup) error {
	log.Printf("Importing %d goals...", len(goals))
	for _, g := range goals {
		query := "INSERT INTO goals (id, child_id, title, target_sats, saved_sats, achieved, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, g.ID, g.ChildID, g.Title, g.TargetSats, g.SavedSats, g.Achieved, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import goal %d: %w", g.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importLessons(lessons []LessonBackup) error {
	log.Printf("Importing %d lessons...", len(lessons))
	for _, l := range lessons {
		query := "INSERT INTO lessons (id, title, summary, content, ordinal, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, l.ID, l.Title, l.Summary, l.Content, l.Ordinal, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import lesson %d: %w", l.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importProgress(progress []ProgressBackup) error {
	log.Printf("Importing %d progress records...", len(progress))
	for _, p := range progress {
		query := "INSERT INTO lesson_progress (child_id, lesson_id) VALUES (?, ?)"
		_, err := s.db.Exec(query, p.ChildID, p.LessonID)
		if err != nil {
			return fmt.Errorf("failed to import progress for child %s, lesson %d: %w", p.ChildID, p.LessonID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
