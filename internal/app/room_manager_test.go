package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
)

func TestRoomManagerLifecycle(t *testing.T) {
	m := NewRoomManager()
	k1 := domain.NewRoomKey("c1", "s1")
	k2 := domain.NewRoomKey("c1", "s2")

	require.NoError(t, m.Join(k1, "a"))
	require.NoError(t, m.Join(k1, "a"), "rejoining the same room is a no-op")
	require.NoError(t, m.Join(k1, "b"))
	require.ErrorIs(t, m.Join(k2, "a"), ErrAlreadyInRoom)

	assert.Equal(t, 2, m.MemberCount(k1))
	assert.ElementsMatch(t, []core.ConnID{"a", "b"}, m.MembersOf(k1))
	key, ok := m.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, k1, key)

	assert.False(t, m.Leave(k1, "a"))
	assert.True(t, m.Leave(k1, "b"), "last member leaving drops the room")
	assert.Zero(t, m.Len())
	assert.Empty(t, m.MembersOf(k1))

	_, ok = m.RoomOf("a")
	assert.False(t, ok)
	assert.True(t, m.Leave(k2, "zzz"), "leaving an unknown room is a no-op")
}

func TestRoomManagerList(t *testing.T) {
	m := NewRoomManager()
	require.NoError(t, m.Join(domain.NewRoomKey("c2", "s1"), "x"))
	require.NoError(t, m.Join(domain.NewRoomKey("c1", "s2"), "y"))
	require.NoError(t, m.Join(domain.NewRoomKey("c1", "s2"), "z"))

	assert.Equal(t, []core.RoomInfo{
		{ClassID: "c1", SectionID: "s2", MemberCount: 2},
		{ClassID: "c2", SectionID: "s1", MemberCount: 1},
	}, m.List())
}

func TestPolicyFor(t *testing.T) {
	for _, tt := range []struct {
		name string
		want BackpressureAction
	}{
		{"", KickMember},
		{"kick", KickMember},
		{" DROP ", DropFrame},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyFor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.OnBackPressure(domain.RoomKey{}, nil))
		})
	}

	_, err := PolicyFor("ignore")
	assert.Error(t, err)
}
