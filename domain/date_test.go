package domain

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-05")
	if err != nil || !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDate = %v, %v", got, err)
	}

	for _, raw := range []string{"05/03/2024", "2024-13-01", "", "tomorrow"} {
		if _, err := ParseDate(raw); !IsDomainError(err, ErrCodeInvalid) {
			t.Fatalf("ParseDate(%q): expected INVALID, got %v", raw, err)
		}
	}
}
