package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"shopdesk/internal/domain"
	"shopdesk/internal/repos"
)

var (
	ErrBadCreds    = errors.New("invalid email or password")
	ErrNotSignedIn = errors.New("not signed in")
)

type AuthService struct {
	Users      *repos.UserRepo
	Businesses *repos.BusinessRepo
	Sessions   *Sessions
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	b, err := s.Businesses.Business(ctx, u.BusinessID)
	if err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return s.Sessions.Start(sid, *u, b), nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	s.Sessions.End(sid)
	return s.Users.UnbindSession(ctx, sid)
}

// Current resolves the session behind sid. A bound sid without a live
// session (after a restart) gets a new, empty register.
func (s *AuthService) Current(ctx context.Context, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrNotSignedIn
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, domain.ErrNotFound) {
		s.Sessions.End(sid)
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	if sess, ok := s.Sessions.Get(sid); ok && sess.User.ID == u.ID {
		return sess, nil
	}
	b, err := s.Businesses.Business(ctx, u.BusinessID)
	if err != nil {
		return nil, err
	}
	return s.Sessions.Ensure(sid, *u, b), nil
}
