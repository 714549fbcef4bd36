package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// RegisterClient validates a sign-up, stores the client with a bcrypt password
// hash and returns it without the hash.
func (m *Marketplace) RegisterClient(ctx context.Context, in domain.Registration) (*domain.Client, error) {
	m.mu.RLock()
	err := domain.ValidateClientRegistration(in, m.emailTakenLocked)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password, m.hashCost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	email := domain.NormalizeEmail(in.Email)
	// the email may have been taken while hashing
	if m.emailTakenLocked(email) {
		m.mu.Unlock()
		return nil, domain.ErrDuplicateEmail
	}
	name := strings.TrimSpace(in.Name)
	client := &domain.Client{
		ID:           newID(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Telegram:     strings.TrimSpace(in.Telegram),
		PasswordHash: string(hash),
		Avatar:       domain.AvatarInitial(name),
		RegisteredAt: m.now(),
	}
	m.clients[client.ID] = client
	m.clientsByEmail[email] = client.ID
	snap := m.commitLocked()
	out := publicClient(client)
	m.mu.Unlock()

	m.log.Info().Str("client_id", out.ID).Msg("client registered")
	return out, m.persist(ctx, snap)
}

// hashPassword maps bcrypt failures onto validation errors.
func hashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return nil, domain.ErrPasswordTooLong
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrPasswordUnusable, err)
	}
}

func (m *Marketplace) emailTakenLocked(email string) bool {
	_, ok := m.clientsByEmail[domain.NormalizeEmail(email)]
	return ok
}

// Authenticate verifies credentials. Clients sign in with their email,
// executors with their name. Any mismatch is ErrInvalidCredentials.
func (m *Marketplace) Authenticate(_ context.Context, identifier, password string, role domain.Role) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	var (
		hash string
		user domain.User
	)
	m.mu.RLock()
	switch role {
	case domain.RoleClient:
		if id, ok := m.clientsByEmail[domain.NormalizeEmail(identifier)]; ok {
			c := m.clients[id]
			hash, user = c.PasswordHash, publicClient(c)
		}
	case domain.RoleExecutor:
		if e := m.findExecutorLocked(identifier); e != nil {
			hash, user = e.PasswordHash, publicExecutor(e)
		}
	}
	m.mu.RUnlock()

	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (m *Marketplace) findExecutorLocked(identifier string) *domain.Executor {
	if e, ok := m.executors[identifier]; ok {
		return e
	}
	for _, id := range m.executorOrder {
		if e := m.executors[id]; strings.EqualFold(e.Name, identifier) {
			return e
		}
	}
	return nil
}

// GetClient returns the client without its password hash.
func (m *Marketplace) GetClient(_ context.Context, clientID string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return publicClient(c), nil
}

// GetExecutor returns the executor without its password hash.
func (m *Marketplace) GetExecutor(_ context.Context, executorID string) (*domain.Executor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.executors[executorID]
	if !ok {
		return nil, domain.ErrExecutorNotFound
	}
	return publicExecutor(e), nil
}

func publicClient(c *domain.Client) *domain.Client {
	out := *c
	out.PasswordHash = ""
	return &out
}

func publicExecutor(e *domain.Executor) *domain.Executor {
	out := *e
	out.PasswordHash = ""
	return &out
}
