// Package services contains application services for the catlog client.
// This file defines the session store: login, registration, logout, and
// restoring a session from the persisted token.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/client"
	"github.com/dmitrijs2005/catlog/internal/client/models"
	"github.com/dmitrijs2005/catlog/internal/client/token"
	"github.com/dmitrijs2005/catlog/internal/logging"
	"golang.org/x/sync/singleflight"
)

// TokenStore is the durable location of the session token.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// InitState is the outcome of InitializeFromToken.
type InitState int

const (
	StateUnknown InitState = iota
	// StateNoToken: nothing persisted, no session.
	StateNoToken
	// StateTokenExpired: the persisted token carried a past exp and was dropped.
	StateTokenExpired
	// StateSessionActive: a session is loaded.
	StateSessionActive
	// StateRestoreFailed: the server rejected or could not confirm the token.
	StateRestoreFailed
)

func (s InitState) String() string {
	switch s {
	case StateNoToken:
		return "no-token"
	case StateTokenExpired:
		return "token-expired"
	case StateSessionActive:
		return "session-active"
	case StateRestoreFailed:
		return "restore-failed"
	default:
		return "unknown"
	}
}

const restoreKey = "restore"

// SessionStore is the single source of truth for who is logged in. The
// in-memory session and the persisted token are changed only through its
// methods. It is safe for concurrent use.
type SessionStore struct {
	api    client.UserAPI
	tokens TokenStore
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *models.Session

	restore singleflight.Group
}

func NewSessionStore(api client.UserAPI, tokens TokenStore, logger logging.Logger) *SessionStore {
	return &SessionStore{
		api:    api,
		tokens: tokens,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// Current returns a copy of the loaded session, or nil.
func (s *SessionStore) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// HasPersistedToken reports whether a token is stored, independent of the
// in-memory session.
func (s *SessionStore) HasPersistedToken(ctx context.Context) (bool, error) {
	tok, err := s.tokens.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}
	return tok != "", nil
}

func (s *SessionStore) set(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

// Login authenticates against the backend. On success the returned payload
// becomes the session and its token is persisted and attached to later
// requests. Errors are returned as is; nothing is retried.
func (s *SessionStore) Login(ctx context.Context, username, password string) (*models.Session, error) {
	payload, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, payload)
}

// Register creates an account and treats the response as the new session.
// A token in the response is persisted like on login; without one the
// session lives only in memory and protected routes will still ask for a
// login.
func (s *SessionStore) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	payload, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, payload)
}

func (s *SessionStore) establish(ctx context.Context, payload json.RawMessage) (*models.Session, error) {
	sess, err := decodeSession(payload)
	if err != nil {
		return nil, err
	}

	if sess.Token != "" {
		if err := s.tokens.Save(ctx, sess.Token); err != nil {
			return nil, fmt.Errorf("persist token: %w", err)
		}
		s.api.SetAuthToken(sess.Token)
	}
	s.set(sess)

	s.logger.Info(ctx, "session established", "user", sess.Username, "token", sess.Token != "")
	return sess, nil
}

// FetchCurrentUser replaces the session with the profile of whoever the
// attached credential belongs to. On failure the session is cleared and the
// error returned; the persisted token is left alone.
func (s *SessionStore) FetchCurrentUser(ctx context.Context) (*models.Session, error) {
	payload, err := s.api.Profile(ctx)
	if err != nil {
		s.set(nil)
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	sess, err := decodeSession(payload)
	if err != nil {
		s.set(nil)
		return nil, err
	}
	if sess.Token == "" {
		sess.Token = s.api.AuthToken()
	}
	s.set(sess)
	return sess, nil
}

// Logout clears the session, the persisted token and the attached
// credential. It never fails; a storage error is only logged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.set(nil)
	s.api.ClearAuthToken()
	// The token must go even when ctx was cancelled (e.g. by SIGINT).
	if err := s.tokens.Delete(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error(ctx, "failed to delete persisted token", "error", err)
	}
}

// InitializeFromToken restores a session from the persisted token:
//
//   - no token: StateNoToken;
//   - token with exp in the past: logout, StateTokenExpired;
//   - session already loaded: StateSessionActive without a network call;
//   - otherwise the token is attached and the profile fetched:
//     StateSessionActive on success, logout and StateRestoreFailed on failure.
//
// A token whose payload cannot be decoded is not treated as expired; the
// server gets to decide. Concurrent callers share a single restoration. The
// only error returned is a failure to read the token store, or ctx ending
// while waiting.
func (s *SessionStore) InitializeFromToken(ctx context.Context) (InitState, error) {
	ch := s.restore.DoChan(restoreKey, func() (any, error) {
		return s.initialize(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		state, _ := res.Val.(InitState)
		return state, res.Err
	case <-ctx.Done():
		return StateUnknown, ctx.Err()
	}
}

func (s *SessionStore) initialize(ctx context.Context) (InitState, error) {
	tok, err := s.tokens.Load(ctx)
	if err != nil {
		return StateUnknown, fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		s.logger.Debug(ctx, "no token found, skipping initialization")
		return StateNoToken, nil
	}

	exp, hasExp, err := token.Expiry(tok)
	switch {
	case err != nil:
		s.logger.Warn(ctx, "could not decode token for expiration check", "error", err)
	case hasExp && exp.Before(s.now()):
		s.logger.Info(ctx, "persisted token expired", "exp", exp)
		s.Logout(ctx)
		return StateTokenExpired, nil
	}

	if s.IsAuthenticated() {
		s.logger.Debug(ctx, "session already loaded")
		return StateSessionActive, nil
	}

	s.api.SetAuthToken(tok)
	sess, err := s.FetchCurrentUser(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to restore session from token", "error", err)
		s.Logout(ctx)
		return StateRestoreFailed, nil
	}

	s.logger.Info(ctx, "session restored", "user", sess.Username)
	return StateSessionActive, nil
}

func decodeSession(payload json.RawMessage) (*models.Session, error) {
	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	return &sess, nil
}
