package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/repository"
)

// routes the UI is sent to
const (
	RouteLanding      = "/menu"
	RouteSignIn       = "/login"
	RouteUnauthorized = "/unauthorized"
)

const msgSessionExpired = "Your session has expired, please sign in again"

// SessionSnapshot is the read model views get from the session.
type SessionSnapshot struct {
	User          *entity.User `json:"user"`
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
	Destination   string       `json:"destination,omitempty"`
	ResumeTo      string       `json:"resumeTo,omitempty"`
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

// SessionService owns the identity of one client: startup reconciliation,
// sign-in/out and global invalidation.
type SessionService struct {
	clientID    string
	store       repository.LocalStore
	base        *apiclient.Client // unauthenticated calls
	api         *apiclient.Client // bearer-scoped, 401 invalidates
	prov        provider.Provider
	notify      Notifier
	settleDelay time.Duration

	mu          sync.Mutex
	boot        Bootstrap
	session     *entity.Session
	loading     bool
	lastErr     string
	destination string
	resumeTo    string
	started     bool
	unsubscribe func()
	settleTimer *time.Timer
}

func NewSessionService(clientID string, store repository.LocalStore, api *apiclient.Client, prov provider.Provider, notify Notifier, settleDelay time.Duration) *SessionService {
	if notify == nil {
		notify = NopNotifier{}
	}
	s := &SessionService{
		clientID:    clientID,
		store:       store,
		base:        api,
		prov:        prov,
		notify:      notify,
		settleDelay: settleDelay,
		loading:     true,
	}
	s.api = api.Scoped(s.Token, s.Invalidate)
	return s
}

// API is the backend client every authenticated call of this client must use.
func (s *SessionService) API() *apiclient.Client { return s.api }

// Start runs the startup reconciliation once.
func (s *SessionService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.loading = true
	s.mu.Unlock()

	persisted := s.readPersisted(ctx)

	s.mu.Lock()
	var d Decision
	s.boot, d = Transition(s.boot, s.session != nil, BootstrapEvent{Kind: EventRestored, Persisted: persisted})
	if d.Kind == DecisionActivate {
		s.session = d.Session
		slog.Info("session restored", "client", s.clientID, "user", d.Session.User.ID)
	}
	s.boot, _ = Transition(s.boot, s.session != nil, BootstrapEvent{Kind: EventSubscribed})
	if s.settleDelay > 0 {
		s.settleTimer = time.AfterFunc(s.settleDelay, s.settle)
	}
	s.mu.Unlock()

	unsubscribe := s.prov.Subscribe(s.onProviderEvent)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if s.settleDelay <= 0 {
		s.settle()
	}
}

func (s *SessionService) readPersisted(ctx context.Context) *entity.Session {
	userJSON, hasUser, err := s.store.Get(ctx, repository.KeyUser)
	if err != nil {
		slog.Error("read persisted user", "client", s.clientID, "error", err)
		return nil
	}
	token, hasToken, err := s.store.Get(ctx, repository.KeyToken)
	if err != nil {
		slog.Error("read persisted token", "client", s.clientID, "error", err)
		return nil
	}
	if !hasUser && !hasToken {
		return nil
	}
	sess, err := RestoreSession(userJSON, token)
	if err != nil {
		slog.Warn("discarding unusable persisted session", "client", s.clientID, "error", err)
		if err := s.store.Remove(ctx, repository.KeyUser, repository.KeyToken); err != nil {
			slog.Error("clear persisted session", "client", s.clientID, "error", err)
		}
		return nil
	}
	return sess
}

func (s *SessionService) onProviderEvent(ev provider.Event) {
	s.mu.Lock()
	wasAwaiting := s.boot.Phase == PhaseAwaitingFirstProviderEvent
	var d Decision
	s.boot, d = Transition(s.boot, s.session != nil, BootstrapEvent{Kind: EventProvider, Identity: ev.Identity})
	s.mu.Unlock()

	// the replay doubles as the provider's ready signal
	if wasAwaiting {
		s.settle()
	}
	if d.Kind != DecisionSync {
		return
	}

	sess := sessionFromIdentity(d.Identity)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	if s.session != nil {
		// a persisted or explicit session arrived first
		s.mu.Unlock()
		return
	}
	s.session = sess
	s.mu.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		slog.Error("persist provider session", "client", s.clientID, "error", err)
	}
	slog.Info("session synced from provider", "client", s.clientID, "user", sess.User.ID)
	s.publish()
}

func (s *SessionService) settle() {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.mu.Unlock()
	s.publish()
}

// Login signs in with email and password.
func (s *SessionService) Login(ctx context.Context, email, password string) (SessionSnapshot, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "Email is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if err := newValidationError(fields); err != nil {
		return s.fail(err)
	}

	s.markSignInStarted()
	res, err := s.base.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err != nil {
		return s.fail(err)
	}
	if res.Token == "" || res.User.ID == "" {
		return s.fail(errors.New("the server answered without a session, please try again"))
	}
	return s.activate(ctx, &entity.Session{User: res.User, Token: res.Token}, nil)
}

// LoginWithProvider completes the provider popup flow, then syncs the
// identity with the backend. A failed sync does not abort sign-in.
func (s *SessionService) LoginWithProvider(ctx context.Context, cred provider.Credential) (SessionSnapshot, error) {
	s.markSignInStarted()

	id, err := s.prov.SignIn(ctx, cred)
	if err != nil {
		slog.Info("provider sign-in failed", "client", s.clientID, "error", err)
		return s.fail(&ProviderError{Err: err})
	}

	sess := sessionFromIdentity(id)
	res, err := s.base.SyncProvider(ctx, apiclient.ProviderSyncRequest{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Provider:    id.ProviderID,
		IDToken:     id.IDToken,
	})
	switch {
	case err != nil:
		slog.Warn("backend sync after provider sign-in failed, continuing with provider identity", "client", s.clientID, "error", err)
	case res.User.ID != "":
		sess.User = mergeProviderUser(res.User, id)
		if res.Token != "" {
			sess.Token = res.Token
		}
	}
	return s.activate(ctx, sess, id)
}

func mergeProviderUser(u entity.User, id *provider.Identity) entity.User {
	if u.DisplayName == "" {
		u.DisplayName = id.DisplayName
	}
	if u.AvatarURL == "" {
		u.AvatarURL = id.PhotoURL
	}
	if u.Provider == "" {
		u.Provider = id.ProviderID
	}
	if !u.Role.Valid() {
		u.Role = entity.RoleCustomer
	}
	return u
}

// Register creates the account and signs it in.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (SessionSnapshot, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	fields := map[string]string{}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields["email"] = "A valid email is required"
	}
	if len(in.Password) < 6 {
		fields["password"] = "Password must have at least 6 characters"
	}
	if in.FirstName == "" {
		fields["firstName"] = "First name is required"
	}
	if err := newValidationError(fields); err != nil {
		return s.fail(err)
	}

	s.markSignInStarted()
	res, err := s.base.Register(ctx, apiclient.RegisterRequest{
		Email:       in.Email,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		return s.fail(err)
	}
	if res.Token != "" && res.User.ID != "" {
		return s.activate(ctx, &entity.Session{User: res.User, Token: res.Token}, nil)
	}
	return s.Login(ctx, in.Email, in.Password)
}

// Logout never fails: local state is cleared whatever the provider says.
func (s *SessionService) Logout(ctx context.Context) SessionSnapshot {
	if s.prov.Current() != nil {
		bestEffort(s.clientID, "provider sign-out", func() error { return s.prov.SignOut(ctx) })
	}
	bestEffort(s.clientID, "clear local session", func() error {
		return s.store.Remove(ctx, repository.KeyUser, repository.KeyToken, repository.KeyProviderUser, repository.KeyRedirectTarget)
	})

	s.mu.Lock()
	s.session = nil
	s.lastErr = ""
	s.resumeTo = ""
	s.destination = RouteSignIn
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish()
	return snap
}

// Invalidate is the reaction to an authorization-denied backend answer.
func (s *SessionService) Invalidate() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	userID := s.session.User.ID
	s.session = nil
	s.lastErr = msgSessionExpired
	s.destination = RouteSignIn
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bestEffort(s.clientID, "clear local session", func() error {
		return s.store.Remove(ctx, repository.KeyUser, repository.KeyToken, repository.KeyProviderUser)
	})
	slog.Info("session invalidated by backend", "client", s.clientID, "user", userID)
	s.publish()
}

func (s *SessionService) UpdateUser(ctx context.Context, upd apiclient.ProfileUpdate) (*entity.User, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	u, err := s.api.UpdateMe(ctx, upd)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	merged := s.session.User
	if u.FirstName != "" {
		merged.FirstName = u.FirstName
	}
	if u.LastName != "" {
		merged.LastName = u.LastName
	}
	if u.DisplayName != "" {
		merged.DisplayName = u.DisplayName
	}
	if u.PhoneNumber != "" {
		merged.PhoneNumber = u.PhoneNumber
	}
	if u.AvatarURL != "" {
		merged.AvatarURL = u.AvatarURL
	}
	s.session.User = merged
	sess := *s.session
	s.mu.Unlock()

	if err := s.persist(ctx, &sess); err != nil {
		slog.Error("persist updated user", "client", s.clientID, "error", err)
	}
	s.publish()
	return &merged, nil
}

func (s *SessionService) ChangePassword(ctx context.Context, current, next string) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	fields := map[string]string{}
	if current == "" {
		fields["currentPassword"] = "Current password is required"
	}
	if len(next) < 6 {
		fields["newPassword"] = "New password must have at least 6 characters"
	}
	if err := newValidationError(fields); err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, apiclient.PasswordChange{CurrentPassword: current, NewPassword: next}); err != nil {
		s.setError(err)
		return err
	}
	return nil
}

// SaveRedirect remembers where an anonymous visitor was heading.
func (s *SessionService) SaveRedirect(ctx context.Context, location string) {
	if location == "" || location == RouteSignIn {
		return
	}
	if err := s.store.Set(ctx, repository.KeyRedirectTarget, location); err != nil {
		slog.Warn("persist redirect target", "client", s.clientID, "error", err)
	}
}

func (s *SessionService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func (s *SessionService) CurrentUser() *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	u := s.session.User
	return &u
}

func (s *SessionService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *SessionService) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TakeDestination hands the pending navigation to the routing layer once.
func (s *SessionService) TakeDestination() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.destination
	s.destination = ""
	return d
}

func (s *SessionService) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *SessionService) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Authenticated: s.session != nil,
		Loading:       s.loading,
		Error:         s.lastErr,
		Destination:   s.destination,
		ResumeTo:      s.resumeTo,
	}
	if s.session != nil {
		u := s.session.User
		snap.User = &u
	}
	return snap
}

func (s *SessionService) markSignInStarted() {
	s.mu.Lock()
	s.boot, _ = Transition(s.boot, s.session != nil, BootstrapEvent{Kind: EventSignInStarted})
	s.mu.Unlock()
}

func (s *SessionService) activate(ctx context.Context, sess *entity.Session, id *provider.Identity) (SessionSnapshot, error) {
	if err := s.persist(ctx, sess); err != nil {
		slog.Error("persist session", "client", s.clientID, "error", err)
	}
	if id != nil {
		if raw, err := json.Marshal(id); err == nil {
			if err := s.store.Set(ctx, repository.KeyProviderUser, string(raw)); err != nil {
				slog.Warn("persist provider identity", "client", s.clientID, "error", err)
			}
		}
	}
	resumeTo, _, err := s.store.Get(ctx, repository.KeyRedirectTarget)
	if err == nil && resumeTo != "" {
		_ = s.store.Remove(ctx, repository.KeyRedirectTarget)
	}

	s.mu.Lock()
	s.session = sess
	s.lastErr = ""
	s.destination = RouteLanding
	s.resumeTo = resumeTo
	snap := s.snapshotLocked()
	s.mu.Unlock()

	slog.Info("signed in", "client", s.clientID, "user", sess.User.ID, "role", sess.User.Role)
	s.publish()
	return snap, nil
}

func (s *SessionService) persist(ctx context.Context, sess *entity.Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, repository.KeyUser, string(raw)); err != nil {
		return err
	}
	return s.store.Set(ctx, repository.KeyToken, sess.Token)
}

func (s *SessionService) fail(err error) (SessionSnapshot, error) {
	s.setError(err)
	return s.Snapshot(), err
}

func (s *SessionService) setError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *SessionService) publish() {
	s.notify.Publish(s.clientID, EventKindSession, s.Snapshot())
}

// bestEffort runs a side step whose failure (or panic) must not abort the caller.
func bestEffort(clientID, what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(what+" panicked", "client", clientID, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		slog.Warn(what+" failed", "client", clientID, "error", err)
	}
}
