// Package error defines the engine's error taxonomy: a small, closed set of
// Kinds rather than a distinct Go type per failure, so callers can switch on
// Kind() without a long type-assertion chain.
package error

import (
	"fmt"
	"strings"
)

// Kind classifies an EngineError. See the package doc for the full
// taxonomy; kinds are not types because most callers only need to branch
// on "was this a normal rejection or a real bug".
type Kind string

const (
	// InvalidInput: token id out of vocabulary range, or a duplicate id
	// supplied at construction time.
	InvalidInput Kind = "invalid_input"
	// Rejected: a byte or token is not grammatically permitted. Normal
	// control flow for compute_allowed_mask (the bit is just cleared) and
	// try_accept_token (it reports false); an error only when returned
	// from commit_token, because the caller promised to only commit tokens
	// the mask allowed.
	Rejected Kind = "rejected"
	// GrammarUnsatisfiable: after reset, the start set is empty, i.e. the
	// grammar accepts no string at all. Reported once at construction.
	GrammarUnsatisfiable Kind = "grammar_unsatisfiable"
	// CacheCapacityExhausted is reserved: the token-prefix cache is bounded
	// and evicts silently by default, so this is never returned today.
	CacheCapacityExhausted Kind = "cache_capacity_exhausted"
	// Internal marks an invariant violation. It should never occur; seeing
	// it indicates a bug in the engine, not bad input.
	Internal Kind = "internal"
)

// EngineError is the single error type returned across package boundaries
// in this module. Cause, when set, is the lower-level error that triggered
// it (wrapped, so errors.Is/As still see through it).
type EngineError struct {
	Kind    Kind
	Message string
	Cause   error

	// TokenID is set when the error concerns a specific vocabulary token,
	// e.g. a Rejected commit_token or an InvalidInput out-of-range id.
	TokenID *uint32
}

func (e *EngineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.TokenID != nil {
		fmt.Fprintf(&b, " (token %d)", *e.TokenID)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Is reports whether target is an *EngineError with the same Kind, which
// lets callers write `errors.Is(err, kerr.New(kerr.Rejected, ""))`-style
// checks, but the idiomatic form is comparing e.Kind directly after an
// errors.As.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an EngineError with no token context.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap builds an EngineError that chains a lower-level cause.
func Wrap(kind Kind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

// WithToken attaches token id context and returns the same error for
// chaining at the call site, e.g. `return kerr.New(...).WithToken(t)`.
func (e *EngineError) WithToken(tokenID uint32) *EngineError {
	e.TokenID = &tokenID
	return e
}
