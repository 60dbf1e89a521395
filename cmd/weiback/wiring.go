package main

import (
	"context"
	"fmt"

	"github.com/weiback-dev/weiback/internal/auth"
	"github.com/weiback-dev/weiback/internal/config"
	"github.com/weiback-dev/weiback/internal/remote"
)

// newClient and newAuthProvider are the seams spec.md §1 marks as
// external collaborators: the HTTP surface of the upstream service
// and its SMS-code login flow. Neither is implemented by this module.
// --dev swaps in an in-memory double so the rest of the CLI can be
// exercised without live credentials; production builds are expected
// to replace these two functions with real implementations.
var devMode bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "use an in-memory remote/auth double instead of a live connection")
}

func newClient(cfg config.Config) (remote.Client, error) {
	if devMode {
		return remote.NewFake(), nil
	}
	return nil, fmt.Errorf("no remote.Client wired: run with --dev, or build weiback with a concrete implementation")
}

func newAuthProvider(cfg config.Config) (auth.Provider, error) {
	if devMode {
		return devAuthProvider{}, nil
	}
	return nil, fmt.Errorf("no auth.Provider wired: run with --dev, or build weiback with a concrete implementation")
}

type devAuthProvider struct{}

func (devAuthProvider) State(ctx context.Context) (auth.State, error) { return auth.LoggedIn, nil }
func (devAuthProvider) RequestSMSCode(ctx context.Context, phone string) error { return nil }
func (devAuthProvider) Login(ctx context.Context, phone, code string) error    { return nil }
