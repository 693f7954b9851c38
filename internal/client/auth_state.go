package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

// RequestTimeout bounds every network call made by AuthState.
const RequestTimeout = 10 * time.Second

const (
	LoginPath = "/login"

	msgTimedOut     = "Request timed out. Please check your connection and try again."
	msgNetwork      = "Network error. Please check your connection and try again."
	msgLoginFailed  = "Login failed. Please check your credentials."
	msgLogoutFailed = "Logout failed. Please try again."
)

// AuthAPI is the slice of Client that AuthState and Guard depend on.
type AuthAPI interface {
	Verify(ctx context.Context) (*VerifyResult, error)
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context) error
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Snapshot is a copy of the auth state at one instant.
type Snapshot struct {
	IsLoading       bool
	Error           string
	IsAuthenticated bool
	IsAdmin         bool
}

// AuthState tracks whether the current user is signed in. It is handed to whatever
// needs it rather than living in a global.
type AuthState struct {
	api     AuthAPI
	nav     Navigator
	timeout time.Duration

	mu    sync.Mutex
	state Snapshot
}

func NewAuthState(api AuthAPI, nav Navigator) *AuthState {
	return &AuthState{api: api, nav: nav, timeout: RequestTimeout}
}

func (s *AuthState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AuthState) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *AuthState) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

// Init asks the server whether the stored session is still valid. Any failure,
// including a network error, leaves the user signed out.
func (s *AuthState) Init(ctx context.Context) {
	s.update(func(st *Snapshot) { st.IsLoading = true })

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.api.Verify(ctx)

	s.update(func(st *Snapshot) {
		st.IsLoading = false
		st.IsAuthenticated = err == nil
		st.IsAdmin = err == nil && res.IsAdmin
	})
}

// Login signs in. On a non-2xx answer the server's message becomes Error verbatim.
func (s *AuthState) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	s.update(func(st *Snapshot) {
		st.IsLoading = true
		st.Error = ""
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.api.Login(ctx, creds)

	s.update(func(st *Snapshot) {
		st.IsLoading = false
		if err != nil {
			st.Error = loginErrorMessage(err)
			return
		}
		st.IsAuthenticated = true
		st.IsAdmin = res.IsAdmin
	})
	return res, err
}

// Logout ends the session and navigates to the login page. On failure the state is
// left as it was apart from Error.
func (s *AuthState) Logout(ctx context.Context) error {
	s.update(func(st *Snapshot) {
		st.IsLoading = true
		st.Error = ""
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.api.Logout(ctx)

	s.update(func(st *Snapshot) {
		st.IsLoading = false
		if err != nil {
			st.Error = msgLogoutFailed
			return
		}
		st.IsAuthenticated = false
		st.IsAdmin = false
	})
	if err != nil {
		return err
	}
	s.nav.Navigate(LoginPath)
	return nil
}

// UserMessage turns a client error into the text shown to the user.
func UserMessage(err error) string {
	var transient *TransientError
	if errors.As(err, &transient) {
		if transient.Timeout {
			return msgTimedOut
		}
		return msgNetwork
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func loginErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" {
		return msgLoginFailed
	}
	return UserMessage(err)
}
