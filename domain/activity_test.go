package domain

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestPropertyActivityLogOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "entries")
		at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		log := &ActivityLog{UserID: "u1"}
		var written []string
		for i := 0; i < n; i++ {
			msg := rapid.StringMatching(`[a-z ]{1,20}`).Draw(rt, "message")
			log.Append(msg, at.Add(time.Duration(i)*time.Second))
			written = append(written, msg)
		}

		if log.Len() != n {
			rt.Fatalf("Len() = %d, want %d", log.Len(), n)
		}
		reversed := log.Reversed()
		for i, msg := range written {
			if log.Entries[i].Message != msg {
				rt.Fatalf("entry[%d] = %q, want %q", i, log.Entries[i].Message, msg)
			}
			if reversed[n-1-i].Message != msg {
				rt.Fatalf("reversed[%d] = %q, want %q", n-1-i, reversed[n-1-i].Message, msg)
			}
		}
	})
}

func TestActivityTimestampRoundTrip(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 58, 900, time.UTC)
	entry := ActivityEntry{Timestamp: FormatActivityTime(at)}
	if entry.Timestamp != "31/12/2024, 23:59:58" {
		t.Fatalf("unexpected timestamp %q", entry.Timestamp)
	}
	parsed, err := entry.Time(time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(at.Truncate(time.Second)) {
		t.Fatalf("parsed %v, want %v", parsed, at.Truncate(time.Second))
	}
}

func TestPopLastOnEmptyLog(t *testing.T) {
	log := &ActivityLog{}
	log.PopLast()
	if _, ok := log.Last(); ok {
		t.Fatalf("empty log has no last entry")
	}
}
