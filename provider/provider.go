// Package provider adapts the third-party identity provider. The web UI runs
// the provider's interactive popup and hands the outcome (an ID token or the
// provider's error code) to SignIn.
package provider

import (
	"context"
	"sync"
)

// Identity is the provider-side profile of a signed-in user.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	ProviderID  string `json:"providerId"`
	IDToken     string `json:"-"`
}

// Event is one auth-state change; a nil Identity means signed out.
type Event struct {
	Identity *Identity
}

// Credential is what the UI's popup flow produced.
type Credential struct {
	IDToken   string `json:"idToken"`
	ErrorCode string `json:"errorCode"`
}

type Provider interface {
	SignIn(ctx context.Context, cred Credential) (*Identity, error)
	SignOut(ctx context.Context) error
	Current() *Identity
	// Subscribe calls fn once right away with the current state, then on
	// every change until the returned func is called.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// TokenProvider keeps the provider session of one client.
type TokenProvider struct {
	verifier *Verifier

	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(Event)
	nextID    int
}

func NewTokenProvider(v *Verifier) *TokenProvider {
	return &TokenProvider{verifier: v, listeners: make(map[int]func(Event))}
}

func (p *TokenProvider) SignIn(ctx context.Context, cred Credential) (*Identity, error) {
	if cred.ErrorCode != "" {
		return nil, ErrorFromCode(cred.ErrorCode)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := p.verifier.Verify(cred.IDToken)
	if err != nil {
		return nil, err
	}
	p.set(id)
	return id, nil
}

func (p *TokenProvider) SignOut(ctx context.Context) error {
	p.set(nil)
	return nil
}

func (p *TokenProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *TokenProvider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	cur := p.current
	p.mu.Unlock()

	fn(Event{Identity: cur})

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *TokenProvider) set(id *Identity) {
	p.mu.Lock()
	p.current = id
	fns := make([]func(Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(Event{Identity: id})
	}
}
