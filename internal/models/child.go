package models

import "time"

// Child represents a child jar account. ChildID is the deterministic primary
// key derived from the parent and name; JarID is the short identifier the
// child logs in with.
type Child struct {
	ChildID     string
	JarID       string
	ParentID    string
	Name        string
	Age         int
	HashedPIN   string
	BalanceSats int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChildWithProgress combines a child with their goal and lesson counts
type ChildWithProgress struct {
	Child            Child
	GoalCount        int
	AchievedGoals    int
	CompletedLessons int
}
