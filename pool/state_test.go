package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTableNeverLoadingAndSavingTogether(t *testing.T) {
	st := newStateTable()
	now := time.Now()
	st.insertLoading("a", now)
	s, ok := st.get("a")
	require.True(t, ok)
	assert.True(t, s.loading)
	assert.False(t, s.saving)

	_, ok = st.finishLoading("a", now)
	require.True(t, ok, "finishLoading: expected entry to exist")
	s, _ = st.get("a")
	assert.False(t, s.loading)

	require.True(t, st.setSaving("a", true), "setSaving: expected entry to exist")
	s, _ = st.get("a")
	assert.Falsef(t, s.loading && s.saving, "invariant violated: loading and saving both true")
}

func TestStateTableIdsOlderThan(t *testing.T) {
	st := newStateTable()
	now := time.Now()
	st.insertReady("old", now.Add(-2*time.Hour))
	st.insertReady("fresh", now)

	old := st.idsOlderThan(time.Hour, now, false)
	assert.Equal(t, []string{"old"}, old)

	all := st.idsOlderThan(time.Hour, now, true)
	assert.Len(t, all, 2)
}
