package events

import (
	"context"
	"encoding/json"
	"errors"
	"paycheck-tracker/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSON(t *testing.T) {
	e := New(Deleted, domain.FixedExpenses, "u1", "f1", nil)

	assert.Equal(t, "fixed_expenses.deleted", e.RoutingKey())
	assert.NotEmpty(t, e.ID)

	data, err := e.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "deleted", decoded["action"])
	assert.Equal(t, "fixed_expenses", decoded["collection"])
	assert.Equal(t, "f1", decoded["record_id"])
	assert.NotContains(t, decoded, "record")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), New(Created, domain.Paychecks, "u1", "p1", nil)))
	assert.Len(t, r.Events(), 1)

	r.Err = errors.New("broker down")
	assert.Error(t, r.Publish(context.Background(), New(Created, domain.Paychecks, "u1", "p2", nil)))
	assert.Len(t, r.Events(), 1)
}
