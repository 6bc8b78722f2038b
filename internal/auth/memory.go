package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"lifeshare/internal/utils"
	"lifeshare/pkg/types"
)

// MemoryProvider is an in-process identity provider for development and
// tests. It accepts any confirmation code and also verifies its own tokens.
type MemoryProvider struct {
	mu       sync.Mutex
	accounts map[string]*memoryAccount
	tokens   map[string]memoryToken
	ttl      time.Duration
	now      func() time.Time
}

type memoryToken struct {
	session   types.Session
	expiresAt time.Time
}

type memoryAccount struct {
	userID    string
	password  string
	confirmed bool
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts: make(map[string]*memoryAccount),
		tokens:   make(map[string]memoryToken),
		ttl:      time.Hour,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for token expiry.
func (p *MemoryProvider) WithClock(now func() time.Time) *MemoryProvider {
	p.now = now
	return p
}

func (p *MemoryProvider) Register(_ context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := p.accounts[key]; exists {
		return "", types.FieldErrors{"email": "An account with this email already exists."}
	}

	account := &memoryAccount{userID: utils.NanoID(), password: password}
	p.accounts[key] = account
	return account.userID, nil
}

func (p *MemoryProvider) Confirm(_ context.Context, email, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[strings.ToLower(email)]
	if !ok || strings.TrimSpace(code) == "" {
		return &types.ValidationError{Field: "code", Message: "Invalid confirmation code. Please check the code and try again."}
	}

	account.confirmed = true
	return nil
}

func (p *MemoryProvider) Login(_ context.Context, email, password string) (*Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[strings.ToLower(email)]
	if !ok || account.password != password {
		return nil, types.ErrInvalidCredentials
	}
	if !account.confirmed {
		return nil, types.ErrUserNotConfirmed
	}

	token := utils.NanoID()
	p.tokens[token] = memoryToken{
		session:   types.Session{UserID: account.userID, Email: email},
		expiresAt: p.now().Add(p.ttl),
	}

	return &Token{AccessToken: token, ExpiresIn: int(p.ttl.Seconds())}, nil
}

func (p *MemoryProvider) Logout(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	issued, ok := p.tokens[accessToken]
	if !ok {
		return nil
	}

	for token, t := range p.tokens {
		if t.session.UserID == issued.session.UserID {
			delete(p.tokens, token)
		}
	}
	return nil
}

func (p *MemoryProvider) Verify(_ context.Context, accessToken string) (types.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	issued, ok := p.tokens[accessToken]
	if !ok {
		return types.Session{}, types.ErrInvalidCredentials
	}
	if !p.now().Before(issued.expiresAt) {
		delete(p.tokens, accessToken)
		return types.Session{}, types.ErrInvalidCredentials
	}
	return issued.session, nil
}
