// Package auth implements the signup/login gate and the in-memory
// session registry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trackit/internal/core"
	"trackit/internal/log"
	"trackit/internal/store"
)

// ErrInvalidCredentials covers both unknown emails and password
// mismatches. It is a result the caller branches on, distinct from
// transport-level failures.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service validates signups and logins against the credential registry
// and seeds new users' datasets.
type Service struct {
	registry store.Registry
	datasets store.Datasets
	sessions *Sessions
	logger   *log.Logger
}

func NewService(registry store.Registry, datasets store.Datasets, sessions *Sessions, logger *log.Logger) *Service {
	return &Service{
		registry: registry,
		datasets: datasets,
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

// SignUp registers a new identity and opens a session for it. The email
// must not already be registered; the credential write happens before
// the dataset seed, so a duplicate signup never reaches the seed path
// and cannot duplicate the record.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user := core.User{Name: strings.TrimSpace(name), Email: email}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	// Plaintext by design: the registry models a mocked identity
	// provider, not a production credential store.
	cred := core.Credential{Name: user.Name, Email: email, Password: password}
	if err := s.registry.Create(ctx, cred); err != nil {
		return nil, err
	}

	if err := s.datasets.Save(ctx, email, core.DefaultDataset()); err != nil {
		return nil, fmt.Errorf("seed dataset: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", log.FieldUserEmail, email)
	return s.sessions.Open(user), nil
}

// LogIn verifies an email/password pair. Unknown email and wrong
// password both resolve to ErrInvalidCredentials so the response does
// not reveal which part failed.
func (s *Service) LogIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	cred, err := s.registry.Find(ctx, email)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up credential: %w", err)
	}
	if cred.Password != password {
		s.logger.WarnContext(ctx, "Password mismatch", log.FieldUserEmail, email)
		return nil, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User logged in", log.FieldUserEmail, email)
	return s.sessions.Open(cred.User()), nil
}

// LogInExternal accepts an identity as externally asserted: once the
// email is registered, no password check happens. This simulates a
// federated provider having already verified the user and is an
// explicit trust boundary, kept separate from LogIn so the bypass can
// never leak into the password path.
func (s *Service) LogInExternal(ctx context.Context, email string) (*Session, error) {
	email = normalizeEmail(email)
	cred, err := s.registry.Find(ctx, email)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up credential: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in via external assertion", log.FieldUserEmail, email)
	return s.sessions.Open(cred.User()), nil
}

// LogOut closes the session. Unknown tokens are a no-op.
func (s *Service) LogOut(ctx context.Context, token string) {
	if s.sessions.Close(token) {
		s.logger.InfoContext(ctx, "User logged out")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
