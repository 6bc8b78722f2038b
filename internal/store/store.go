package store

import (
	"fmt"
	"sort"
	"strings"

	"lifeshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// unavailable marks a failed database call so callers can tell it apart from
// a missing record.
func unavailable(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, types.ErrBackendUnavailable, err)
}

// buildUpdateClause creates the SET clause for ON CONFLICT DO UPDATE
// e.g., "hero_quote = EXCLUDED.hero_quote, updated_at = EXCLUDED.updated_at"
func buildUpdateClause(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for field := range fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	return strings.Join(parts, ", ")
}
