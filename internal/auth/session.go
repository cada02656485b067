package auth

import (
	"context"
	"sync"
)

// Session is the sign-in state of one front end: who is signed in, with
// which token, and the message of the last failed auth action.
type Session struct {
	svc *Service

	mu       sync.Mutex
	token    string
	identity *Identity
	errMsg   string
	watchers map[chan *Identity]struct{}
}

func NewSession(svc *Service) *Session {
	return &Session{svc: svc, watchers: make(map[chan *Identity]struct{})}
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	token, id, err := s.svc.SignIn(ctx, email, password)
	return s.settle(token, id, err)
}

func (s *Session) CreateAccount(ctx context.Context, email, password, displayName string) error {
	token, id, err := s.svc.CreateAccount(ctx, email, password, displayName)
	return s.settle(token, id, err)
}

// Restore resumes a session from a token issued earlier.
func (s *Session) Restore(ctx context.Context, token string) error {
	id, err := s.svc.Authenticate(ctx, token)
	return s.settle(token, id, err)
}

// SignOut clears the local state even if revoking the token fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	var err error
	if token != "" {
		err = s.svc.SignOut(ctx, token)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = nil
	s.errMsg = Message(err)
	s.notifyLocked()
	return err
}

func (s *Session) settle(token string, id Identity, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = Message(err)
		return err
	}
	s.token = token
	s.identity = &id
	s.errMsg = ""
	s.notifyLocked()
	return nil
}

func (s *Session) notifyLocked() {
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s.currentLocked()
	}
}

func (s *Session) currentLocked() *Identity {
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// ErrorMessage is empty after a successful action.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Changes yields the current identity first and then the new one after
// every sign-in or sign-out; nil means signed out. Only the latest value is
// kept for a slow reader. The channel closes when ctx is done.
func (s *Session) Changes(ctx context.Context) <-chan *Identity {
	ch := make(chan *Identity, 1)

	s.mu.Lock()
	ch <- s.currentLocked()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}
