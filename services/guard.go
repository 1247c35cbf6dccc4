package services

import (
	"slices"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
)

type GuardKind int

const (
	GuardRender GuardKind = iota
	GuardLoading
	GuardRedirect
)

type GuardDecision struct {
	Kind GuardKind
	To   string // redirect target
	From string // originally requested location, kept for after sign-in
}

// Guard decides what a protected view shows. An empty roles list admits any
// signed-in user.
func Guard(snap SessionSnapshot, roles []entity.Role, location string) GuardDecision {
	switch {
	case snap.Loading:
		return GuardDecision{Kind: GuardLoading}
	case !snap.Authenticated || snap.User == nil:
		return GuardDecision{Kind: GuardRedirect, To: RouteSignIn, From: location}
	case len(roles) > 0 && !slices.Contains(roles, snap.User.Role):
		return GuardDecision{Kind: GuardRedirect, To: RouteUnauthorized}
	}
	return GuardDecision{Kind: GuardRender}
}
