// Package permission asks the user (or a policy standing in for them) for
// access to the device location.
package permission

import (
	"context"
	"errors"
)

// ErrPlatform wraps failures of the host permission service itself.
var ErrPlatform = errors.New("permission platform failure")

// Result is the user's answer to a permission request.
type Result int

const (
	Denied Result = iota
	Granted
)

func (r Result) String() string {
	if r == Granted {
		return "granted"
	}
	return "denied"
}

// Rationale is shown to the user before the permission decision.
type Rationale struct {
	Title        string
	Message      string
	ConfirmLabel string
}

// Gate requests location permission.
type Gate interface {
	Request(ctx context.Context, r Rationale) (Result, error)
}
