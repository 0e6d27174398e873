package models

import "time"

// SavingsGoal represents a savings target a child is working toward
type SavingsGoal struct {
	ID         int64
	ChildID    string
	Title      string
	TargetSats int64
	SavedSats  int64
	Achieved   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Progress returns how far along the goal is, in [0, 1]
func (g *SavingsGoal) Progress() float64 {
	if g.TargetSats <= 0 {
		return 0
	}
	p := float64(g.SavedSats) / float64(g.TargetSats)
	if p > 1 {
		return 1
	}
	return p
}
