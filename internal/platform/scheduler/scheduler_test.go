package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRegister_EmptyScheduleDisabled(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Register("reindex", "", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected no jobs, got %d", s.Len())
	}
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.Register("reindex", "every tuesday-ish", func() error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if s.Len() != 0 {
		t.Errorf("expected no jobs, got %d", s.Len())
	}
}

func TestRegister_Duplicate(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Register("reindex", "@hourly", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Register("reindex", "@daily", func() error { return nil }); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 job, got %d", s.Len())
	}
}

func TestStart_RunsJob(t *testing.T) {
	s := New(zerolog.Nop())
	var calls atomic.Int32
	fired := make(chan struct{}, 1)
	if err := s.Register("reindex", "@every 1s", func() error {
		if calls.Add(1) == 1 {
			fired <- struct{}{}
		}
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Start()
	if s.Next("reindex").IsZero() {
		t.Error("expected next run time after start")
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStop_NotStarted(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestRun_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(zerolog.New(&buf))
	s.run("reindex", func() error { return errors.New("knowledge dir vanished") })

	out := buf.String()
	if !strings.Contains(out, "scheduled job failed") || !strings.Contains(out, "knowledge dir vanished") {
		t.Errorf("expected failure log, got %s", out)
	}
}

func TestNext_Unknown(t *testing.T) {
	if !New(zerolog.Nop()).Next("missing").IsZero() {
		t.Error("expected zero time for unknown job")
	}
}
