package repository

import (
	"testing"
	"time"
)

func TestExtensionStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-24 * time.Hour)

	if got := ExtensionStart(now, nil); !got.Equal(now) {
		t.Errorf("no active period: got %v, want now", got)
	}
	if got := ExtensionStart(now, &future); !got.Equal(future) {
		t.Errorf("future period end: got %v, want %v", got, future)
	}
	if got := ExtensionStart(now, &past); !got.Equal(now) {
		t.Errorf("lapsed period: got %v, want now", got)
	}
}
