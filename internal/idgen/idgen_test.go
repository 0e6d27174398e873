package idgen

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple name",
			input: "Amara",
			want:  "amara",
		},
		{
			name:  "two words",
			input: "Jane Doe",
			want:  "jane_doe",
		},
		{
			name:  "whitespace run collapses",
			input: "jane  doe",
			want:  "jane_doe",
		},
		{
			name:  "uppercase",
			input: "JANE DOE",
			want:  "jane_doe",
		},
		{
			name:  "leading and trailing whitespace",
			input: "  jane doe  ",
			want:  "jane_doe",
		},
		{
			name:  "tabs and newlines",
			input: "jane\tdoe",
			want:  "jane_doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeriveChildIDDeterminism(t *testing.T) {
	first := DeriveChildID("p1", "Amara")
	second := DeriveChildID("p1", "Amara")
	if first != second {
		t.Errorf("DeriveChildID not deterministic: %q != %q", first, second)
	}
}

func TestDeriveChildIDNormalizationInvariance(t *testing.T) {
	variants := []string{"Jane Doe", "jane  doe", "JANE DOE"}
	want := DeriveChildID("p1", variants[0])
	for _, v := range variants[1:] {
		if got := DeriveChildID("p1", v); got != want {
			t.Errorf("DeriveChildID(p1, %q) = %q, want %q", v, got, want)
		}
	}
}

func TestDeriveChildIDFormat(t *testing.T) {
	tests := []struct {
		parentID  string
		childName string
	}{
		{"p1", "Amara"},
		{"parent-uuid-long-value", "Brian"},
		{"", ""},
		{"p2", "Name With Many   Spaces"},
	}

	for _, tt := range tests {
		id := DeriveChildID(tt.parentID, tt.childName)
		if !ValidChildID(id) {
			t.Errorf("DeriveChildID(%q, %q) = %q, not 20 lowercase hex chars", tt.parentID, tt.childName, id)
		}
	}
}

func TestDeriveChildIDDistinctInputs(t *testing.T) {
	a := DeriveChildID("p1", "Amara")
	b := DeriveChildID("p2", "Amara")
	c := DeriveChildID("p1", "Brian")
	if a == b {
		t.Error("different parents produced the same child ID")
	}
	if a == c {
		t.Error("different names produced the same child ID")
	}
}

func TestDeriveJarIDFormat(t *testing.T) {
	tests := []struct {
		childName string
		parentID  string
		age       int
	}{
		{"Amara", "p1", 10},
		{"Brian", "p1", 7},
		{"Jane Doe", "parent-uuid", 17},
		{"x", "y", 1},
	}

	for _, tt := range tests {
		jarID := DeriveJarID(tt.childName, tt.parentID, tt.age)
		if !ValidJarID(jarID) {
			t.Errorf("DeriveJarID(%q, %q, %d) = %q, not 6 uppercase hex chars", tt.childName, tt.parentID, tt.age, jarID)
		}
	}
}

func TestDeriveJarIDDeterminism(t *testing.T) {
	first := DeriveJarID("Amara", "p1", 10)
	second := DeriveJarID("Amara", "p1", 10)
	if first != second {
		t.Errorf("DeriveJarID not deterministic: %q != %q", first, second)
	}

	// Age is part of the derivation.
	if DeriveJarID("Amara", "p1", 10) == DeriveJarID("Amara", "p1", 11) {
		t.Error("different ages produced the same jar ID")
	}
}

func TestValidChildID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "0123456789abcdef0123", true},
		{"too short", "abc", false},
		{"too long", "0123456789abcdef01234", false},
		{"uppercase rejected", "0123456789ABCDEF0123", false},
		{"non-hex rejected", "0123456789abcdefg123", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidChildID(tt.id); got != tt.want {
				t.Errorf("ValidChildID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidJarID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "A1B2C3", true},
		{"lowercase rejected", "a1b2c3", false},
		{"too short", "A1B2C", false},
		{"too long", "A1B2C3D", false},
		{"non-hex rejected", "A1B2CG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidJarID(tt.id); got != tt.want {
				t.Errorf("ValidJarID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
