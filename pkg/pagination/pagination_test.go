package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundtrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 8, 15, 10, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := Parse(Encode(cursor))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) {
		t.Fatalf("timestamp drifted: got %s, want %s", parsed.CreatedAt, cursor.CreatedAt)
	}
	if parsed.ID != cursor.ID {
		t.Fatalf("id drifted: got %s, want %s", parsed.ID, cursor.ID)
	}
}

func TestParseEmptyCursorIsNil(t *testing.T) {
	for _, value := range []string{"", "   "} {
		cursor, err := Parse(value)
		if err != nil {
			t.Fatalf("parse(%q) returned error: %v", value, err)
		}
		if cursor != nil {
			t.Fatalf("parse(%q) should yield nil cursor", value)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"not base64", "!!!"},
		{"missing separator", "bm8tc2VwYXJhdG9y"},
		{"bad timestamp", "bm90LWEtdGltZXwxMjM0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.value); err == nil {
				t.Fatalf("expected error for %q", tc.value)
			}
		})
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{25, 25},
		{MaxLimit, MaxLimit},
		{MaxLimit + 100, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLimitWithBuffer(t *testing.T) {
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
	if got := LimitWithBuffer(0); got != DefaultLimit+1 {
		t.Fatalf("LimitWithBuffer(0) = %d, want %d", got, DefaultLimit+1)
	}
}
