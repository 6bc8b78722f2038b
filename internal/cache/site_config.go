package cache

import (
	"context"
	"fmt"
	"time"

	"lifeshare/pkg/types"
)

const siteConfigKey = "lifeshare:site_config"

type SiteConfigSource interface {
	SiteConfig(ctx context.Context) (*types.SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, update types.SiteConfigUpdate) error
}

// SiteConfigStore serves the site configuration from redis, falling back to
// next on a miss. Writes go to next and drop the cached copy.
type SiteConfigStore struct {
	next  SiteConfigSource
	cache *Cache
	ttl   time.Duration
}

func NewSiteConfigStore(next SiteConfigSource, cache *Cache, ttl time.Duration) *SiteConfigStore {
	return &SiteConfigStore{next: next, cache: cache, ttl: ttl}
}

func (s *SiteConfigStore) SiteConfig(ctx context.Context) (*types.SiteConfig, error) {
	config, err := GetOrLoadJSON(s.cache, ctx, siteConfigKey, s.ttl, s.next.SiteConfig)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return s.next.SiteConfig(ctx)
	}
	return config, nil
}

func (s *SiteConfigStore) UpdateSiteConfig(ctx context.Context, update types.SiteConfigUpdate) error {
	if err := s.next.UpdateSiteConfig(ctx, update); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, siteConfigKey); err != nil {
		return fmt.Errorf("failed to invalidate cached site config: %w: %w", types.ErrBackendUnavailable, err)
	}
	return nil
}
