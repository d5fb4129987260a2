package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func conn(id, participant string, at time.Duration) *core.Connection {
	return &core.Connection{
		ID:            core.ConnID(id),
		ParticipantID: participant,
		Session:       domain.SessionDescriptor{ParticipantID: participant, ClassID: "c1", SectionID: "s1", Role: domain.RoleStudent},
		ConnectedAt:   t0.Add(at),
	}
}

func TestRegistryAdmitRemove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Admit(conn("a", "alice", 0)))
	require.ErrorIs(t, r.Admit(conn("a", "alice", time.Second)), ErrDuplicateConnection)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "alice", got.ParticipantID)

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Equal(t, core.ConnID("a"), removed.ID)

	_, ok = r.Remove("a")
	assert.False(t, ok, "second remove is a no-op")
	_, ok = r.Lookup("a")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistryByParticipant(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Admit(conn("b2", "bob", 2*time.Second)))
	require.NoError(t, r.Admit(conn("a1", "alice", 0)))
	require.NoError(t, r.Admit(conn("b1", "bob", time.Second)))

	bobs := r.ByParticipant("bob")
	require.Len(t, bobs, 2)
	assert.Equal(t, core.ConnID("b1"), bobs[0].ID)
	assert.Equal(t, core.ConnID("b2"), bobs[1].ID)
	assert.Empty(t, r.ByParticipant("carol"))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, core.ConnID("a1"), all[0].ID)
}
