package models

import (
	"testing"
	"time"

	"satsjar/internal/credentials"
)

func TestChildSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := ChildSession{
				ID:        "test-session",
				ChildID:   "0123456789abcdef0123",
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("ChildSession.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestParentHasSavingsPIN(t *testing.T) {
	tests := []struct {
		name   string
		parent Parent
		want   bool
	}{
		{
			name:   "digest credential",
			parent: Parent{PINCredential: credentials.Stored{Kind: credentials.KindDigest, Value: "abc"}},
			want:   true,
		},
		{
			name:   "legacy plaintext credential",
			parent: Parent{PINCredential: credentials.Stored{Kind: credentials.KindLegacyPlaintext, Value: "123456"}},
			want:   true,
		},
		{
			name:   "no credential",
			parent: Parent{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.parent.HasSavingsPIN(); got != tt.want {
				t.Errorf("Parent.HasSavingsPIN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSavingsGoalProgress(t *testing.T) {
	tests := []struct {
		name string
		goal SavingsGoal
		want float64
	}{
		{
			name: "halfway",
			goal: SavingsGoal{TargetSats: 100000, SavedSats: 50000},
			want: 0.5,
		},
		{
			name: "not started",
			goal: SavingsGoal{TargetSats: 100000, SavedSats: 0},
			want: 0,
		},
		{
			name: "overshoot caps at one",
			goal: SavingsGoal{TargetSats: 100000, SavedSats: 150000},
			want: 1,
		},
		{
			name: "zero target",
			goal: SavingsGoal{TargetSats: 0, SavedSats: 100},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.Progress(); got != tt.want {
				t.Errorf("SavingsGoal.Progress() = %v, want %v", got, tt.want)
			}
		})
	}
}
