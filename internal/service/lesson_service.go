package service

import (
	"errors"
	"fmt"
	"log"

	"satsjar/internal/models"
	"satsjar/internal/repository"
)

var ErrLessonNotFound = errors.New("lesson not found")

// LessonService handles the built-in saving lessons
type LessonService struct {
	lessonRepo *repository.LessonRepository
}

// NewLessonService creates a new lesson service
func NewLessonService(lessonRepo *repository.LessonRepository) *LessonService {
	return &LessonService{lessonRepo: lessonRepo}
}

// ListLessons retrieves all lessons in order
func (s *LessonService) ListLessons() ([]models.Lesson, error) {
	lessons, err := s.lessonRepo.ListLessons()
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// ListLessonsForChild retrieves all lessons with the child's completion state
func (s *LessonService) ListLessonsForChild(childID string) ([]models.LessonWithStatus, error) {
	lessons, err := s.lessonRepo.ListLessonsWithStatus(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// GetLesson retrieves a single lesson
func (s *LessonService) GetLesson(lessonID int64) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetLessonByID(lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

// CompletedCount returns how many lessons a child has finished
func (s *LessonService) CompletedCount(childID string) (int, error) {
	count, err := s.lessonRepo.CountCompletedLessons(childID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// CompleteLesson marks a lesson as completed for a child
func (s *LessonService) CompleteLesson(childID string, lessonID int64) error {
	if _, err := s.GetLesson(lessonID); err != nil {
		return err
	}
	if err := s.lessonRepo.MarkLessonCompleted(childID, lessonID); err != nil {
		return fmt.Errorf("failed to complete lesson: %w", err)
	}
	return nil
}

// SeedDefaultLessons inserts the starter lesson set if the table is empty
func (s *LessonService) SeedDefaultLessons() error {
	count, err := s.lessonRepo.CountLessons()
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding default lessons...")
	for i, l := range defaultLessons {
		if _, err := s.lessonRepo.CreateLesson(l.title, l.summary, l.content, i+1); err != nil {
			return fmt.Errorf("failed to seed lesson %q: %w", l.title, err)
		}
	}
	log.Printf("Seeded %d lessons", len(defaultLessons))
	return nil
}

var defaultLessons = []struct {
	title   string
	summary string
	content string
}{
	{
		title:   "What is money?",
		summary: "Money lets people trade things they have for things they want.",
		content: "Long ago people swapped things directly: a fish for some apples. That only works when both people want what the other has. Money solves this. Everyone agrees money is worth something, so you can sell your fish for money and buy apples later.",
	},
	{
		title:   "What is Bitcoin?",
		summary: "Bitcoin is money that lives on the internet and nobody can print more of.",
		content: "Bitcoin is digital money. There will only ever be 21 million bitcoins, and no company or government can make more. The smallest piece of a bitcoin is called a satoshi, or sat. There are 100 million sats in one bitcoin. Your jar counts your savings in sats.",
	},
	{
		title:   "Why save?",
		summary: "Saving means keeping some money now so you can do bigger things later.",
		content: "If you spend everything right away, you can only ever buy small things. Saving a little bit each week adds up. A goal helps: pick something you really want, find out what it costs, and watch your jar grow toward it.",
	},
	{
		title:   "Needs and wants",
		summary: "Needs are things you must have. Wants are things that are fun to have.",
		content: "Food, a home, and warm clothes are needs. Games, sweets, and toys are wants. Wants are fine! But when deciding what to do with your sats, it helps to ask: is this a need, a want I will still care about next month, or a want I will forget by tomorrow?",
	},
	{
		title:   "Keeping your savings safe",
		summary: "Your PIN is a secret. Never share it, not even with friends.",
		content: "Your jar has a PIN, like a tiny key. Anyone who knows it can pretend to be you. Keep it secret: don't write it where others can see it and never tell it to anyone except your parents. If you think someone learned your PIN, ask a parent to give you a new one.",
	},
}
