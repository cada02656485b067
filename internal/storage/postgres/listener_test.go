package postgres

import (
	"paycheck-tracker/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	c, owner, err := parsePayload("fixed_expenses:8c0e6c5e-1f7a-4c38-9b8e-2d1e3f4a5b6c")
	require.NoError(t, err)
	assert.Equal(t, domain.FixedExpenses, c)
	assert.Equal(t, "8c0e6c5e-1f7a-4c38-9b8e-2d1e3f4a5b6c", owner)

	for _, bad := range []string{"", "expenses", "expenses:", "users:u1", "revoked_tokens:x"} {
		_, _, err := parsePayload(bad)
		assert.Error(t, err, bad)
	}
}
