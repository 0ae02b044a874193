package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
)

func TestAppend_Idempotent(t *testing.T) {
	links, added, err := Append(nil, "45235236", 100)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, links, 1)

	again, added, err := Append(links, "45235236", 101)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, links, again)

	_, _, err = Append(links, "", 102)
	assert.ErrorIs(t, err, shared.ErrInvalidNRP)
}

func TestAppend_DoesNotAliasInput(t *testing.T) {
	base := make([]FriendLink, 1, 4)
	base[0] = FriendLink{LinkID: 1, NRP: "a"}

	first, _, _ := Append(base, "b", 2)
	second, _, _ := Append(base, "c", 3)

	assert.Equal(t, "b", first[1].NRP)
	assert.Equal(t, "c", second[1].NRP)
}

func TestStateOf(t *testing.T) {
	links := []FriendLink{{LinkID: 1, NRP: "38469843"}}
	assert.Equal(t, StateFriend, StateOf(links, "38469843"))
	assert.Equal(t, StateNotFriend, StateOf(links, "59928341"))
	assert.Equal(t, StateNotFriend, StateOf(nil, "59928341"))
}

func TestJoinStudents_DropsOrphansAndKeepsStudentOrder(t *testing.T) {
	students := student.SeedStudents()
	links := []FriendLink{
		{LinkID: 1, NRP: "59928341"},
		{LinkID: 2, NRP: "gone"},
		{LinkID: 3, NRP: "123456678"},
	}

	friends := JoinStudents(links, students)
	require.Len(t, friends, 2)
	assert.Equal(t, "123456678", friends[0].NRP)
	assert.Equal(t, "59928341", friends[1].NRP)

	assert.Equal(t, []FriendLink{{LinkID: 2, NRP: "gone"}}, Orphans(links, students))
	assert.NotNil(t, JoinStudents(nil, students))
}

func TestMaxLinkID(t *testing.T) {
	assert.Zero(t, MaxLinkID(nil))
	assert.Equal(t, int64(9), MaxLinkID([]FriendLink{{LinkID: 3}, {LinkID: 9}, {LinkID: 5}}))
}
