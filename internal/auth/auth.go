package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
)

// ClientStore is the slice of the store the auth provider needs.
type ClientStore interface {
	FindClientByEmail(ctx context.Context, email string) (model.Client, error)
	CreateClient(ctx context.Context, client *model.Client) error
}

// Provider verifies claimed credentials against stored bcrypt hashes and
// manages opaque bearer session tokens. Sessions live in an in-memory cache
// with a TTL; a token that expired simply stops resolving.
type Provider struct {
	store    ClientStore
	sessions *cache.Cache
	cost     int
	ttl      time.Duration
}

// NewProvider creates an auth provider. cost is the bcrypt work factor.
func NewProvider(store ClientStore, cost int, sessionTTL time.Duration) *Provider {
	return &Provider{
		store:    store,
		sessions: cache.New(sessionTTL, 2*sessionTTL),
		cost:     cost,
		ttl:      sessionTTL,
	}
}

// RegisterInput is a self-registration request.
type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Phone    string
	Password string
}

// Register creates a client account with a bcrypt-hashed password and opens a
// session for it.
func (p *Provider) Register(ctx context.Context, in RegisterInput) (model.Client, string, error) {
	if in.Email == "" || in.Password == "" {
		return model.Client{}, "", fmt.Errorf("%w: email and password are required", booking.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.cost)
	if err != nil {
		return model.Client{}, "", fmt.Errorf("hash password: %w", err)
	}

	client := model.Client{
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         model.RoleClient,
	}
	if err := p.store.CreateClient(ctx, &client); err != nil {
		return model.Client{}, "", fmt.Errorf("create client: %w", err)
	}

	token, err := p.openSession(client)
	if err != nil {
		return model.Client{}, "", err
	}
	return client, token, nil
}

// Login verifies the claimed credential and returns a fresh session token.
// An unknown email and a wrong password are indistinguishable to the caller.
func (p *Provider) Login(ctx context.Context, email, password string) (model.Client, string, error) {
	client, err := p.store.FindClientByEmail(ctx, email)
	if err != nil {
		return model.Client{}, "", fmt.Errorf("%w: unknown email or wrong password", booking.ErrAuthRequired)
	}

	if bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(password)) != nil {
		return model.Client{}, "", fmt.Errorf("%w: unknown email or wrong password", booking.ErrAuthRequired)
	}

	token, err := p.openSession(client)
	if err != nil {
		return model.Client{}, "", err
	}
	return client, token, nil
}

// Logout drops the session for the token, if any.
func (p *Provider) Logout(token string) {
	p.sessions.Delete(token)
}

// SessionFromToken resolves a bearer token into a session.
func (p *Provider) SessionFromToken(token string) (booking.Session, bool) {
	v, found := p.sessions.Get(token)
	if !found {
		return booking.Session{}, false
	}
	return v.(booking.Session), true
}

func (p *Provider) openSession(client model.Client) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	p.sessions.Set(token, booking.Session{
		ClientID: client.ID,
		Email:    client.Email,
		Role:     client.Role,
	}, p.ttl)
	return token, nil
}
