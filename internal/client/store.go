package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/templui/portfolio/internal/model"
)

type Status int

const (
	StatusUnchecked Status = iota
	StatusChecking
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnchecked:
		return "unchecked"
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a point-in-time copy of the auth state.
type Session struct {
	Status  Status
	User    *model.PublicUser
	Err     error
	Loading bool
}

// IsAuthChecked reports whether the startup check has settled.
func (s Session) IsAuthChecked() bool {
	return s.Status == StatusAuthenticated || s.Status == StatusUnauthenticated
}

func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Store holds the client's auth state and the actions that move it.
// Subscribers are called outside the lock, in registration order.
type Store struct {
	api    *API
	tokens TokenStore

	mu       sync.Mutex
	session  Session
	epoch    uint64
	checking chan struct{}
	subs     map[int]func(Session)
	nextSub  int
}

// NewStore wires the store to api so a rejected token flips the state to
// unauthenticated.
func NewStore(api *API, tokens TokenStore) *Store {
	s := &Store{
		api:    api,
		tokens: tokens,
		subs:   make(map[int]func(Session)),
	}
	api.OnUnauthorized(s.invalidate)
	return s
}

func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// CheckAuth resolves the persisted token into a session. A concurrent call
// waits for the one in flight instead of starting another.
func (s *Store) CheckAuth(ctx context.Context) Session {
	s.mu.Lock()
	if wait := s.checking; wait != nil {
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
		}
		return s.Snapshot()
	}
	done := make(chan struct{})
	s.checking = done
	epoch := s.epoch
	s.session.Status = StatusChecking
	s.session.Err = nil
	s.notifyLocked()

	defer func() {
		s.mu.Lock()
		s.checking = nil
		s.mu.Unlock()
		close(done)
	}()

	token, err := s.tokens.Token(ctx)
	if err != nil || token == "" {
		s.settleCheck(epoch, nil, err)
		return s.Snapshot()
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		clearErr := s.tokens.ClearToken(ctx)
		if clearErr != nil {
			slog.Warn("failed to clear token after auth check", "error", clearErr)
		}
		s.settleCheck(epoch, nil, err)
		return s.Snapshot()
	}

	s.settleCheck(epoch, user, nil)
	return s.Snapshot()
}

// settleCheck applies a check result unless a sign-in, sign-out or
// invalidation happened while it ran.
func (s *Store) settleCheck(epoch uint64, user *model.PublicUser, err error) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if user != nil {
		s.session = Session{Status: StatusAuthenticated, User: user}
	} else {
		s.session = Session{Status: StatusUnauthenticated, Err: err}
	}
	s.notifyLocked()
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.begin()
	resp, err := s.api.Signin(ctx, email, password)
	if err != nil {
		s.end(err)
		return err
	}
	return s.establish(ctx, resp)
}

func (s *Store) SignUp(ctx context.Context, name, email, password string) error {
	s.begin()
	resp, err := s.api.Signup(ctx, name, email, password)
	if err != nil {
		s.end(err)
		return err
	}
	return s.establish(ctx, resp)
}

func (s *Store) establish(ctx context.Context, resp *AuthResponse) error {
	err := s.tokens.SetToken(ctx, resp.Token)
	if err != nil {
		s.end(err)
		return err
	}

	s.mu.Lock()
	s.epoch++
	s.session = Session{Status: StatusAuthenticated, User: resp.User}
	s.notifyLocked()
	return nil
}

// SignOut forgets the token locally. The server keeps no session to end.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.tokens.ClearToken(ctx)

	s.mu.Lock()
	s.epoch++
	s.session = Session{Status: StatusUnauthenticated}
	s.notifyLocked()
	return err
}

func (s *Store) UpdateProfile(ctx context.Context, form ProfileForm) error {
	s.begin()
	user, err := s.api.UpdateProfile(ctx, form)
	if err != nil {
		s.end(err)
		return err
	}

	s.mu.Lock()
	s.session.Loading = false
	s.session.Err = nil
	if s.session.Status == StatusAuthenticated {
		s.session.User = user
	}
	s.notifyLocked()
	return nil
}

func (s *Store) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	s.begin()
	err := s.api.ChangePassword(ctx, currentPassword, newPassword)
	s.end(err)
	return err
}

func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	s.begin()
	err := s.api.ForgotPassword(ctx, email)
	s.end(err)
	return err
}

func (s *Store) ResetPassword(ctx context.Context, token, password string) error {
	s.begin()
	err := s.api.ResetPassword(ctx, token, password)
	s.end(err)
	return err
}

// invalidate runs after the API cleared a rejected token.
func (s *Store) invalidate() {
	s.mu.Lock()
	s.epoch++
	s.session.Status = StatusUnauthenticated
	s.session.User = nil
	s.notifyLocked()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.session.Loading = true
	s.session.Err = nil
	s.notifyLocked()
}

func (s *Store) end(err error) {
	s.mu.Lock()
	s.session.Loading = false
	s.session.Err = err
	s.notifyLocked()
}

// notifyLocked releases s.mu and then delivers the new snapshot.
func (s *Store) notifyLocked() {
	snapshot := s.session
	subs := make([]func(Session), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
