package pagination

import (
	"testing"
	"time"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit for negative, got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestEncodeParseCursorRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 30, 0, 123456789, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedOn: created, ID: 987654321})

	cursor, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !cursor.CreatedOn.Equal(created) {
		t.Fatalf("created mismatch: want %v got %v", created, cursor.CreatedOn)
	}
	if cursor.ID != 987654321 {
		t.Fatalf("id mismatch: got %d", cursor.ID)
	}
}

func TestParseCursorEmptyReturnsNil(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor for blank input")
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if _, err := ParseCursor("!!!not-base64!!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor("bm8tc2VwYXJhdG9y"); err == nil { // "no-separator"
		t.Fatal("expected format error")
	}
}
