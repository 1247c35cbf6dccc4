package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
)

// BootstrapPhase tracks where a client is in its startup reconciliation.
type BootstrapPhase int

const (
	PhaseUninitialized BootstrapPhase = iota
	PhaseAwaitingFirstProviderEvent
	PhaseSettled
)

func (p BootstrapPhase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseAwaitingFirstProviderEvent:
		return "awaiting_first_provider_event"
	case PhaseSettled:
		return "settled"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Bootstrap struct {
	Phase BootstrapPhase
	// Reconciled is set once an identity has been established (or an
	// explicit sign-in started) during this load; later provider events
	// never trigger another sync.
	Reconciled bool
}

type BootstrapEventKind int

const (
	EventRestored      BootstrapEventKind = iota // persisted record read (Persisted may be nil)
	EventSubscribed                              // provider subscription registered
	EventProvider                                // provider auth-state callback
	EventSignInStarted                           // explicit login began
)

type BootstrapEvent struct {
	Kind      BootstrapEventKind
	Persisted *entity.Session
	Identity  *provider.Identity
}

type DecisionKind int

const (
	DecisionIgnore DecisionKind = iota
	DecisionActivate
	DecisionSync
)

type Decision struct {
	Kind     DecisionKind
	Session  *entity.Session
	Identity *provider.Identity
}

// Transition is the whole reconciliation policy. hasActive reports whether a
// session is active when the event is handled.
//
// A persisted session always wins: once one is restored, provider events are
// ignored for the rest of the load. The first provider callback after
// subscribing is the provider replaying its existing state and never syncs.
func Transition(b Bootstrap, hasActive bool, ev BootstrapEvent) (Bootstrap, Decision) {
	ignore := Decision{Kind: DecisionIgnore}

	switch ev.Kind {
	case EventRestored:
		if ev.Persisted == nil || hasActive {
			return b, ignore
		}
		b.Reconciled = true
		return b, Decision{Kind: DecisionActivate, Session: ev.Persisted}

	case EventSubscribed:
		if b.Phase == PhaseUninitialized {
			b.Phase = PhaseAwaitingFirstProviderEvent
		}
		return b, ignore

	case EventSignInStarted:
		b.Reconciled = true
		return b, ignore

	case EventProvider:
		switch b.Phase {
		case PhaseUninitialized:
			return b, ignore
		case PhaseAwaitingFirstProviderEvent:
			b.Phase = PhaseSettled
			return b, ignore
		}
		if ev.Identity == nil || hasActive || b.Reconciled {
			return b, ignore
		}
		b.Reconciled = true
		return b, Decision{Kind: DecisionSync, Identity: ev.Identity}
	}
	return b, ignore
}

var errIncompleteRecord = errors.New("persisted session is incomplete")

// RestoreSession rebuilds a session from the persisted user JSON and token.
func RestoreSession(userJSON, token string) (*entity.Session, error) {
	if userJSON == "" || token == "" {
		return nil, errIncompleteRecord
	}
	var u entity.User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		return nil, fmt.Errorf("decode persisted user: %w", err)
	}
	if u.ID == "" {
		return nil, errIncompleteRecord
	}
	if !u.Role.Valid() {
		u.Role = entity.RoleCustomer
	}
	return &entity.Session{User: u, Token: token}, nil
}

func sessionFromIdentity(id *provider.Identity) *entity.Session {
	return &entity.Session{
		User: entity.User{
			ID:          id.UID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			AvatarURL:   id.PhotoURL,
			Provider:    id.ProviderID,
			Role:        entity.RoleCustomer,
		},
		Token: id.IDToken,
	}
}
