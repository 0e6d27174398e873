package models

import "time"

// Lesson represents a short savings lesson shown to children
type Lesson struct {
	ID        int64
	Title     string
	Summary   string
	Content   string
	Ordinal   int
	CreatedAt time.Time
}

// LessonProgress records a child completing a lesson
type LessonProgress struct {
	ID          int64
	ChildID     string
	LessonID    int64
	CompletedAt time.Time
}

// LessonWithStatus combines a lesson with a child's completion state
type LessonWithStatus struct {
	Lesson    Lesson
	Completed bool
}
