package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestKeyRoundTrip(t *testing.T) {
	key := NewKey()
	if !strings.HasPrefix(key, "sk_") || len(key) != 35 {
		t.Fatalf("unexpected key shape %q", key)
	}
	hash, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}
	if err := VerifyKey(hash, key); err != nil {
		t.Fatalf("VerifyKey: %v", err)
	}
	if err := VerifyKey(hash, NewKey()); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("other key err=%v want ErrInvalidKey", err)
	}
	if err := VerifyKey("", key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("empty hash err=%v", err)
	}
}

func TestHashKeyRejectsForeignKeys(t *testing.T) {
	if _, err := HashKey("password123"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("err=%v want ErrInvalidKey", err)
	}
}

func TestBearerKey(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer sk_abc", "sk_abc", true},
		{"bearer  sk_abc ", "sk_abc", true},
		{"Bearer ", "", false},
		{"Basic sk_abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerKey(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("BearerKey(%q)=%q,%v want %q,%v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
