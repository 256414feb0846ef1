// File: internal/credstore/auth.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package credstore

import (
	"context"
	"errors"
)

// Login acquires a session, verifies the user and releases the session.
// Rejected credentials return ok=false and no error.
func (s *Store) Login(ctx context.Context, user, password string) (bool, error) {
	err := s.WithSession(ctx, func(sess *Session) error {
		return sess.Verify(user, password)
	})
	if errors.Is(err, ErrInvalidCredentials) {
		return false, nil
	}
	return err == nil, err
}

// Register acquires a session and creates the user. Taken names and empty
// fields return ok=false and no error.
func (s *Store) Register(ctx context.Context, user, password string) (bool, error) {
	err := s.WithSession(ctx, func(sess *Session) error {
		return sess.Register(user, password)
	})
	if errors.Is(err, ErrUserExists) || errors.Is(err, ErrInvalidUser) {
		return false, nil
	}
	return err == nil, err
}
