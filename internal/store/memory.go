package store

import (
	"context"
	"sync"
	"time"

	"lifeshare/internal/donor"
	"lifeshare/internal/utils"
	"lifeshare/pkg/types"
)

// MemoryStore keeps users and the site configuration in process. It satisfies
// the same contracts as UserRepository and SiteConfigRepository and is used by
// tests and by `serve --memory`.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*types.DonorProfile
	order  []string
	config *types.SiteConfig
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*types.DonorProfile),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for created_at and updated_at stamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) User(_ context.Context, userID string) (*types.DonorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return cloneProfile(user), nil
}

func (m *MemoryStore) ListDonors(_ context.Context, criteria types.FilterCriteria) ([]*types.DonorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.DonorProfile, 0, len(m.order))
	for _, id := range m.order {
		user := m.users[id]
		if user.Role != types.RoleDonor {
			continue
		}
		if !donor.Matches(user, criteria) {
			continue
		}
		out = append(out, cloneProfile(user))
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) Create(_ context.Context, user *types.DonorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	if user.Role == "" {
		user.Role = types.RoleDonor
	}
	if _, exists := m.users[user.ID]; exists {
		return types.ErrUserExists
	}

	now := m.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = cloneProfile(user)
	m.order = append(m.order, user.ID)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, userID string, update types.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return types.ErrUserNotFound
	}

	update.Apply(user)
	user.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return types.ErrUserNotFound
	}

	delete(m.users, userID)
	m.order = utils.FilterSliceString(m.order, userID)
	return nil
}

func (m *MemoryStore) SiteConfig(_ context.Context) (*types.SiteConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		m.config = types.DefaultSiteConfig()
		m.config.UpdatedAt = m.now()
	}

	config := *m.config
	return &config, nil
}

func (m *MemoryStore) UpdateSiteConfig(_ context.Context, update types.SiteConfigUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		m.config = types.DefaultSiteConfig()
	}

	update.Apply(m.config)
	m.config.UpdatedAt = m.now()
	return nil
}

func cloneProfile(p *types.DonorProfile) *types.DonorProfile {
	c := *p
	if p.LastDonateDate != nil {
		c.LastDonateDate = utils.TimePtr(*p.LastDonateDate)
	}
	if p.ProfilePhoto != nil {
		c.ProfilePhoto = utils.StringPtr(*p.ProfilePhoto)
	}
	if p.Email != nil {
		c.Email = utils.StringPtr(*p.Email)
	}
	return &c
}
