package payment

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is the provider contract the checkout and callback flows depend on.
// Amounts are integer minor units.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (Initialized, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}

type InitializeRequest struct {
	Reference   string
	AmountMinor int64
	Email       string
	CallbackURL string
}

type Initialized struct {
	RedirectURL string
	Reference   string
}

type Status int

const (
	StatusFailed Status = iota
	StatusSuccess
	StatusPending // provider has not settled yet
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPending:
		return "pending"
	default:
		return "failed"
	}
}

type Verification struct {
	Reference   string
	Status      Status
	AmountMinor int64
	// Provider wording for the outcome, e.g. "abandoned".
	ProviderStatus string
}

var (
	// ErrNetwork covers transport failures, timeouts, provider 5xx or 429, and an open breaker.
	// Safe to retry a verify; never blindly retry an initialize.
	ErrNetwork = errors.New("payment gateway unreachable")
	// ErrRejected means the provider answered and refused the request.
	ErrRejected = errors.New("payment gateway rejected the request")
)

// Error carries the operation and kind of a gateway failure.
type Error struct {
	Op     string // "initialize" | "verify"
	Kind   error  // ErrNetwork or ErrRejected
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("payment %s: %v", e.Op, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func networkErr(op string, err error) error {
	return &Error{Op: op, Kind: ErrNetwork, Err: err}
}

func rejectedErr(op, detail string) error {
	return &Error{Op: op, Kind: ErrRejected, Detail: detail}
}
