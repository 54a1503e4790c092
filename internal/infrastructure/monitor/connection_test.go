package monitor

import (
	"context"
	"errors"
	"testing"
)

type fixedSize int

func (s fixedSize) Size() (int, error) { return int(s), nil }

func TestRefresh(t *testing.T) {
	dbErr := error(nil)
	m := New(Targets{
		Storage:  "postgres",
		Database: PingFunc(func(context.Context) error { return dbErr }),
		Buffer:   fixedSize(3),
	}, 0, nil)

	m.Refresh()
	status := m.GetStatus()
	if !m.IsOnline() || !status.Redis || status.BufferSize != 3 || !status.Buffer {
		t.Fatalf("unexpected status %+v", status)
	}

	dbErr = errors.New("down")
	m.Refresh()
	if m.IsOnline() {
		t.Fatalf("monitor should report offline when the database ping fails")
	}
	if m.GetStatus().Storage != "postgres" {
		t.Fatalf("storage name should be reported")
	}
}
