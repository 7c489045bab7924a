package rules

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a command was rejected.
type ErrorKind string

const (
	ErrIllegalPhase        ErrorKind = "ILLEGAL_PHASE"
	ErrNotYourTurn         ErrorKind = "NOT_YOUR_TURN"
	ErrInsufficientMana    ErrorKind = "INSUFFICIENT_MANA"
	ErrZoneFull            ErrorKind = "ZONE_FULL"
	ErrInvalidTarget       ErrorKind = "INVALID_TARGET"
	ErrMustTargetTaunt     ErrorKind = "MUST_TARGET_TAUNT"
	ErrAlreadyUsedHeroPower ErrorKind = "ALREADY_USED_HERO_POWER"
	ErrMatchAlreadyOver    ErrorKind = "MATCH_ALREADY_OVER"
	ErrUnknownCard         ErrorKind = "UNKNOWN_CARD"
	ErrUnknownMatch        ErrorKind = "UNKNOWN_MATCH"

	// ErrCorruptState marks an internal invariant violation. It is never a
	// recoverable game error: the match is aborted with a diagnostic.
	ErrCorruptState ErrorKind = "CORRUPT_STATE"
)

// RuleError is a rejected command. Rejections are synchronous and leave the
// match state untouched; the caller decides whether to retry with corrected
// input.
type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports kind equality so errors.Is works against a bare kind error.
func (e *RuleError) Is(target error) bool {
	var other *RuleError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Errorf constructs a RuleError with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *RuleError {
	return &RuleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain, or "" if the error is
// not a rule error.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
