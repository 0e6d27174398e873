package credentials

import "testing"

func TestVerifyParentPIN(t *testing.T) {
	tests := []struct {
		name      string
		presented string
		rec       Stored
		want      bool
	}{
		{
			name:      "matching digest",
			presented: "123456",
			rec:       Stored{Kind: KindDigest, Value: DigestPIN("123456")},
			want:      true,
		},
		{
			name:      "wrong PIN against digest",
			presented: "000000",
			rec:       Stored{Kind: KindDigest, Value: DigestPIN("123456")},
			want:      false,
		},
		{
			name:      "matching legacy plaintext",
			presented: "654321",
			rec:       Stored{Kind: KindLegacyPlaintext, Value: "654321"},
			want:      true,
		},
		{
			name:      "wrong PIN against legacy plaintext",
			presented: "123456",
			rec:       Stored{Kind: KindLegacyPlaintext, Value: "654321"},
			want:      false,
		},
		{
			name:      "no credential on file",
			presented: "123456",
			rec:       Stored{},
			want:      false,
		},
		{
			name:      "unknown kind rejected",
			presented: "123456",
			rec:       Stored{Kind: Kind("argon2"), Value: "whatever"},
			want:      false,
		},
		{
			name:      "plaintext PIN does not match digest branch",
			presented: DigestPIN("123456"),
			rec:       Stored{Kind: KindDigest, Value: DigestPIN("123456")},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyParentPIN(tt.presented, tt.rec); got != tt.want {
				t.Errorf("VerifyParentPIN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDigestPINDeterminism(t *testing.T) {
	if DigestPIN("123456") != DigestPIN("123456") {
		t.Error("DigestPIN not deterministic")
	}
	if DigestPIN("123456") == DigestPIN("123457") {
		t.Error("different PINs produced the same digest")
	}
	if len(DigestPIN("123456")) != 64 {
		t.Errorf("DigestPIN length = %d, want 64 hex chars", len(DigestPIN("123456")))
	}
}

func TestHashChildPIN(t *testing.T) {
	pin := "112233"

	hash, err := HashChildPIN(pin)
	if err != nil {
		t.Fatalf("HashChildPIN() error = %v", err)
	}
	if hash == "" || hash == pin {
		t.Error("HashChildPIN() returned an unhashed value")
	}

	// Per-record salt: hashing twice must differ.
	hash2, err := HashChildPIN(pin)
	if err != nil {
		t.Fatalf("HashChildPIN() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashChildPIN() should produce different hashes due to salt")
	}
}

func TestVerifyChildPIN(t *testing.T) {
	hash, err := HashChildPIN("112233")
	if err != nil {
		t.Fatalf("HashChildPIN() error = %v", err)
	}

	tests := []struct {
		name      string
		presented string
		hash      string
		want      bool
	}{
		{"correct PIN", "112233", hash, true},
		{"wrong PIN", "445566", hash, false},
		{"empty PIN", "", hash, false},
		{"empty hash", "112233", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyChildPIN(tt.presented, tt.hash); got != tt.want {
				t.Errorf("VerifyChildPIN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeneratePIN(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pin, err := GeneratePIN()
		if err != nil {
			t.Fatalf("GeneratePIN() error = %v", err)
		}
		if len(pin) != 6 {
			t.Errorf("GeneratePIN() length = %d, want 6", len(pin))
		}
		for _, c := range pin {
			if c < '0' || c > '9' {
				t.Errorf("GeneratePIN() = %q, contains non-digit", pin)
			}
		}
		seen[pin] = true
	}
	// 50 draws from a million-value space colliding down to one value would
	// mean the generator is broken.
	if len(seen) < 2 {
		t.Error("GeneratePIN() produced no variety")
	}
}
