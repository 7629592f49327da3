package syncq

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func useTempDir(t *testing.T) {
	t.Helper()
	prev := Dir
	Dir = t.TempDir()
	t.Cleanup(func() { Dir = prev })
}

func TestLoadEmptyQueue(t *testing.T) {
	useTempDir(t)
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d commands, want 0", len(got))
	}
}

func TestPushKeepsOrderAndStampsTime(t *testing.T) {
	useTempDir(t)
	for i := 0; i < 3; i++ {
		if err := Push(Command{CompanyID: "c1", Method: "POST", Path: "/advance", IdempotencyKey: fmt.Sprintf("k%d", i)}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 || got[0].IdempotencyKey != "k0" || got[2].IdempotencyKey != "k2" {
		t.Fatalf("queue=%+v", got)
	}
	if got[0].QueuedAt.IsZero() {
		t.Fatalf("queued_at not set")
	}
}

func TestReplay(t *testing.T) {
	useTempDir(t)
	for _, c := range []Command{
		{CompanyID: "c1", IdempotencyKey: "a"},
		{CompanyID: "c2", IdempotencyKey: "other"},
		{CompanyID: "c1", IdempotencyKey: "b"},
		{CompanyID: "c1", IdempotencyKey: "c"},
		{CompanyID: "c1", IdempotencyKey: "d"},
	} {
		if err := Push(c); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	var sent []string
	res, err := Replay(context.Background(), "c1", func(_ context.Context, c Command) error {
		sent = append(sent, c.IdempotencyKey)
		switch c.IdempotencyKey {
		case "b":
			return errors.New("insufficient funds")
		case "c":
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if fmt.Sprint(sent) != "[a b c]" {
		t.Fatalf("sent=%v", sent)
	}
	if res.Applied != 1 || len(res.Rejected) != 1 || res.Remaining != 2 {
		t.Fatalf("result=%+v", res)
	}

	left, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var keys []string
	for _, c := range left {
		keys = append(keys, c.IdempotencyKey)
	}
	if fmt.Sprint(keys) != "[other c d]" {
		t.Fatalf("remaining=%v", keys)
	}

	pending, err := Pending("c2")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("c2 pending=%d", len(pending))
	}
}

func TestReplayDrainsQueueFile(t *testing.T) {
	useTempDir(t)
	if err := Push(Command{CompanyID: "c1", IdempotencyKey: "a"}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := Replay(context.Background(), "c1", func(context.Context, Command) error { return nil }); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("queue not drained: %+v", got)
	}
}
