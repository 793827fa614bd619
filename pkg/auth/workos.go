package auth

import (
	"context"
	"fmt"

	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

// identityClient is the slice of the identity service the authenticator
// needs. *usermanagement.Client satisfies it.
type identityClient interface {
	AuthenticateWithPassword(ctx context.Context, opts usermanagement.AuthenticateWithPasswordOpts) (usermanagement.AuthenticateResponse, error)
}

// Authenticator performs password sign-in and feeds the result into the
// session manager.
type Authenticator struct {
	client   identityClient
	clientID string
	manager  *Manager
}

// NewAuthenticator creates an authenticator backed by the hosted
// identity service.
func NewAuthenticator(apiKey, clientID string, manager *Manager) *Authenticator {
	return &Authenticator{
		client:   usermanagement.NewClient(apiKey),
		clientID: clientID,
		manager:  manager,
	}
}

// Login authenticates with email and password. On success the session
// manager is updated with the signed-in user.
func (a *Authenticator) Login(ctx context.Context, email, password string) (SessionContext, error) {
	resp, err := a.client.AuthenticateWithPassword(ctx, usermanagement.AuthenticateWithPasswordOpts{
		ClientID: a.clientID,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return SessionContext{}, fmt.Errorf("password authentication: %w", err)
	}

	a.manager.SetUser(resp.User.ID, resp.User.Email)
	return a.manager.Current(), nil
}

// Logout clears the signed-in user.
func (a *Authenticator) Logout() {
	a.manager.ClearUser()
}
