package services

import (
	"errors"

	"maplecart/internal/domain"
	"maplecart/internal/repos"
	"maplecart/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCreds is deliberately the same for every login failure so responses
// never reveal whether the email exists.
var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds the sid cookie to a user row on login; everything that
// needs an identity (order history, admin routes) resolves it through
// CurrentUser.
type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	// A password that can't pass the complexity window can't be a stored
	// one; skip the bcrypt work.
	if !validate.Password(password) {
		return nil, ErrBadCreds
	}
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout unbinds the session but keeps the sid cookie: the anonymous cart
// and wishlist hanging off it survive.
func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
