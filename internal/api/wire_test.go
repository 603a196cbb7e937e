package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/toman/internal/apperr"
)

func TestWireTimeShapes(t *testing.T) {
	cases := map[string]time.Time{
		`null`:                       {},
		`""`:                         {},
		`"2025-02-03"`:               time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		`"2025-02-03T10:00:00Z"`:     time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC),
		`"2025-02-03T10:00:00.250Z"`: time.Date(2025, 2, 3, 10, 0, 0, 250e6, time.UTC),
	}
	for in, want := range cases {
		var got wireTime
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.True(t, want.Equal(got.Time), in)
	}

	var bad wireTime
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &bad))
}

func TestMemberIDsAcceptsObjects(t *testing.T) {
	var m memberIDs
	require.NoError(t, json.Unmarshal([]byte(`["u1", {"id": "u2"}]`), &m))
	assert.Equal(t, memberIDs{"u1", "u2"}, m)
}

func TestTaskFallbackNames(t *testing.T) {
	var w wireTask
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t9","name":"short","description":"d","assignedTo":null}`), &w))
	task := w.model()
	assert.Equal(t, "t9", task.ID)
	assert.Equal(t, "short", task.Name)
	assert.Equal(t, "d", task.Description)
	assert.True(t, task.Unassigned())
}

func TestUnwrap(t *testing.T) {
	raw, err := unwrap([]byte(`{"success":true,"project":{"_id":"p1"}}`), "project")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"p1"}`, string(raw))

	raw, err = unwrap([]byte(`{"_id":"t1","taskName":"x"}`), "task", "data")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"t1","taskName":"x"}`, string(raw))

	raw, err = unwrap([]byte(` [1,2] `), "data")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", string(raw))

	_, err = unwrap([]byte(`{"success":false,"error":"nope"}`), "data")
	assert.ErrorIs(t, err, apperr.ErrHTTP)
	assert.Contains(t, err.Error(), "nope")
}
