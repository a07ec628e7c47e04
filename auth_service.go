package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const invalidCredentials = "Invalid username or password"

// AuthService checks credentials only. No token or session is issued; with the
// default plain password mode this is not secure.
type AuthService struct {
	users     *UserService
	passwords PasswordHasher
	log       zerolog.Logger
}

func NewAuthService(users *UserService, passwords PasswordHasher, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, passwords: passwords, log: log}
}

// Login returns the user with the password cleared. Unknown users and wrong
// passwords produce the same error.
func (a *AuthService) Login(ctx context.Context, username, password string) (UserDTO, error) {
	if strings.TrimSpace(username) == "" {
		return UserDTO{}, fmt.Errorf("%w: Username cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(password) == "" {
		return UserDTO{}, fmt.Errorf("%w: Password cannot be empty", ErrValidation)
	}

	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.log.Debug().Msg("login rejected")
			return UserDTO{}, fmt.Errorf("%w: %s", ErrUnauthorized, invalidCredentials)
		}
		return UserDTO{}, err
	}
	if !a.passwords.Matches(user.Password, password) {
		a.log.Debug().Msg("login rejected")
		return UserDTO{}, fmt.Errorf("%w: %s", ErrUnauthorized, invalidCredentials)
	}

	user.Password = ""
	return user, nil
}
