package syncq

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Command is one studio write that could not reach the API. It carries the
// idempotency key of the original attempt so a replay that already landed
// is recognised by the server.
type Command struct {
	CompanyID      string         `json:"company_id"`
	Label          string         `json:"label"`
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	QueuedAt       time.Time      `json:"queued_at"`
}

// ErrStop aborts a replay without dropping the current command.
var ErrStop = errors.New("stop replay")

// Dir is where the queue file lives; empty means ~/.stk.
var Dir string

func queuePath() (string, error) {
	dir := Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".stk")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "queue.json"), nil
}

func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	commands = append(commands, cmd)
	return Save(commands)
}

// Pending returns the queued commands for one company, oldest first.
func Pending(companyID string) ([]Command, error) {
	all, err := Load()
	if err != nil {
		return nil, err
	}
	out := make([]Command, 0, len(all))
	for _, c := range all {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Result counts what a replay did.
type Result struct {
	Applied   int
	Rejected  []error
	Remaining int
}

// Replay sends the company's queued commands in order. A send returning nil
// or a rejection drops the command; ErrStop (or a cancelled context) keeps it
// and everything after it in the queue. Commands of other companies are never
// touched.
func Replay(ctx context.Context, companyID string, send func(context.Context, Command) error) (Result, error) {
	all, err := Load()
	if err != nil {
		return Result{}, err
	}
	var res Result
	kept := make([]Command, 0, len(all))
	stopped := false
	for _, c := range all {
		if c.CompanyID != companyID || stopped {
			kept = append(kept, c)
			if c.CompanyID == companyID {
				res.Remaining++
			}
			continue
		}
		if ctx.Err() != nil {
			stopped = true
			kept = append(kept, c)
			res.Remaining++
			continue
		}
		err := send(ctx, c)
		switch {
		case err == nil:
			res.Applied++
		case errors.Is(err, ErrStop):
			stopped = true
			kept = append(kept, c)
			res.Remaining++
		default:
			res.Rejected = append(res.Rejected, err)
		}
	}
	if err := Save(kept); err != nil {
		return res, err
	}
	return res, nil
}
