package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolve_UnknownClaimGetsFreshSession(t *testing.T) {
	tr := NewTracker(time.Minute, zap.NewNop())
	defer tr.Close()

	id, resumed := tr.Resolve("")
	require.NotEmpty(t, id)
	assert.False(t, resumed)
	assert.True(t, tr.Online(id))

	other, resumed := tr.Resolve("never-issued")
	assert.False(t, resumed)
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, tr.Count())
}

func TestResolve_ResumesWithinGrace(t *testing.T) {
	tr := NewTracker(time.Minute, zap.NewNop())
	defer tr.Close()

	id, _ := tr.Resolve("")
	tr.MarkOffline(id)
	assert.False(t, tr.Online(id))

	got, resumed := tr.Resolve(id)
	assert.True(t, resumed)
	assert.Equal(t, id, got)
	assert.True(t, tr.Online(id))
}

func TestMarkOffline_ExpiresAfterGrace(t *testing.T) {
	tr := NewTracker(20*time.Millisecond, zap.NewNop())
	defer tr.Close()

	id, _ := tr.Resolve("")
	tr.MarkOffline(id)

	assert.Eventually(t, func() bool { return tr.Count() == 0 },
		time.Second, 10*time.Millisecond)

	got, resumed := tr.Resolve(id)
	assert.False(t, resumed, "expired session must not resume")
	assert.NotEqual(t, id, got)
}

func TestResolve_ReconnectRacesExpiry(t *testing.T) {
	tr := NewTracker(50*time.Millisecond, zap.NewNop())
	defer tr.Close()

	id, _ := tr.Resolve("")
	tr.MarkOffline(id)

	// Resolve before the window elapses, then wait past it: the stopped
	// timer must not forget a session that came back.
	_, resumed := tr.Resolve(id)
	require.True(t, resumed)

	time.Sleep(120 * time.Millisecond)
	assert.True(t, tr.Online(id))
}
