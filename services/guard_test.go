package services

import (
	"testing"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	waiter := &entity.User{ID: "1", Role: entity.RoleWaiter}
	signedIn := SessionSnapshot{User: waiter, Authenticated: true}

	tests := []struct {
		name  string
		snap  SessionSnapshot
		roles []entity.Role
		want  GuardDecision
	}{
		{"loading never redirects", SessionSnapshot{Loading: true}, nil, GuardDecision{Kind: GuardLoading}},
		{"anonymous goes to sign-in", SessionSnapshot{}, nil, GuardDecision{Kind: GuardRedirect, To: RouteSignIn, From: "/orders"}},
		{"any role", signedIn, nil, GuardDecision{Kind: GuardRender}},
		{"role allowed", signedIn, []entity.Role{entity.RoleAdmin, entity.RoleWaiter}, GuardDecision{Kind: GuardRender}},
		{"role denied", signedIn, []entity.Role{entity.RoleAdmin}, GuardDecision{Kind: GuardRedirect, To: RouteUnauthorized}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.snap, tt.roles, "/orders"))
		})
	}
}
