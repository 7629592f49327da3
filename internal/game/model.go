package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCompanyNameLen   = 48
	DefaultHistoryLimit = 120
	MaxHistoryLimit     = 1200
	DefaultCandidates   = 3
	MaxCandidates       = 8
)

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTxConflict           = errors.New("transaction conflict, retry")
	ErrStaleSnapshot        = errors.New("company changed since it was loaded")
	ErrInvalidName          = errors.New("invalid company name")
	ErrDelegationOff        = errors.New("delegation mode is off")
)

var blockedNameFragments = []string{
	"admin",
	"moderator",
	"support",
	"shit",
	"fuck",
	"bitch",
	"nazi",
}

func validateCompanyName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(clean) > MaxCompanyNameLen {
		return fmt.Errorf("%w: too long (max %d chars)", ErrInvalidName, MaxCompanyNameLen)
	}
	lower := strings.ToLower(clean)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("%w: contains blocked content", ErrInvalidName)
		}
	}
	return nil
}

func clampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
