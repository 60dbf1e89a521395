// Package auth defines the seam between core.Core and the (external,
// unspecified per spec.md §1) SMS-code-to-session-cookie login flow.
// Nothing in this module implements Provider; production wiring
// supplies a concrete adapter from outside this repo.
package auth

import "context"

type State string

const (
	LoggedOut State = "logged_out"
	AwaitingSMSCode State = "awaiting_sms_code"
	LoggedIn State = "logged_in"
)

// Provider is the external collaborator core.Core delegates the login
// flow to.
type Provider interface {
	State(ctx context.Context) (State, error)
	RequestSMSCode(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, code string) error
}
