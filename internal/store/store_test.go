package store

import (
	"errors"
	"testing"

	"lifeshare/pkg/types"

	"github.com/stretchr/testify/assert"
)

func TestBuildUpdateClauseIsSorted(t *testing.T) {
	got := buildUpdateClause(map[string]any{
		"whatsapp_number": "x",
		"hero_quote":      "y",
		"updated_at":      "z",
	})
	assert.Equal(t, "hero_quote = EXCLUDED.hero_quote, updated_at = EXCLUDED.updated_at, whatsapp_number = EXCLUDED.whatsapp_number", got)
}

func TestUnavailableWrapsBoth(t *testing.T) {
	cause := errors.New("connection refused")
	err := unavailable(cause, "failed to fetch user")

	assert.ErrorIs(t, err, types.ErrBackendUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to fetch user: backend unavailable: connection refused", err.Error())
}

func TestUserColumnsFollowTags(t *testing.T) {
	assert.Equal(t, []string{
		"id", "role", "full_name", "age", "phone", "city", "district", "blood_group",
		"last_donate_date", "profile_photo", "email", "created_at", "updated_at",
	}, userColumns)
	assert.Equal(t, []string{"hero_quote", "whatsapp_number", "updated_at"}, siteConfigColumns)
}
