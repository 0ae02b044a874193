package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/external/mail"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/memory"
)

func newStore(t *testing.T) *persistence.CollectionStore {
	t.Helper()
	return persistence.NewCollectionStore(memory.New(), nil)
}

func nrps(students []student.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.NRP
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

func TestListStudents_SeedsEmptyStore(t *testing.T) {
	res, err := NewListStudentsHandler(newStore(t), 0).Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)

	programs := map[student.Program]bool{}
	for _, s := range res.Students {
		programs[s.Program] = true
	}
	assert.Equal(t, map[student.Program]bool{
		student.ProgramDSAI: true, student.ProgramGD: true,
		student.ProgramDMT: true, student.ProgramNCS: true,
	}, programs)
}

func TestGetStudent(t *testing.T) {
	h := NewGetStudentHandler(newStore(t), 0)
	ctx := context.Background()

	got, err := h.Handle(ctx, GetStudentQuery{NRP: "59928341"})
	require.NoError(t, err)
	assert.Equal(t, "Julian Casablancas", got.Name)

	_, err = h.Handle(ctx, GetStudentQuery{NRP: "000"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, GetStudentQuery{NRP: ""})
	assert.True(t, shared.IsValidation(err))
}

func TestSearchStudents(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveStudents(ctx, append(student.SeedStudents(), student.Student{
		NRP: "77", Name: "Dsaiyan Putra", Email: "d@x.id", Program: student.ProgramGD,
	})))
	h := NewSearchStudentsHandler(store, 0)

	tests := []struct {
		query string
		want  []string
	}{
		{"DSAI", []string{"123456678", "77"}},
		{"dsai", []string{"123456678", "77"}},
		{"", []string{"123456678", "45235236", "38469843", "59928341", "77"}},
		{"8469", []string{"38469843"}},
		{"casablancas", []string{"59928341"}},
		{"gd", []string{"45235236", "77"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := h.Handle(ctx, SearchStudentsQuery{Query: tt.query})
			require.NoError(t, err)
			assert.Equal(t, tt.want, nrps(res.Students))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestSearchStudents_EmptyQueryMatchesList(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	all, err := NewListStudentsHandler(store, 0).Handle(ctx)
	require.NoError(t, err)
	found, err := NewSearchStudentsHandler(store, 0).Handle(ctx, SearchStudentsQuery{})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(all.Students, found.Students))
}

func TestQueries_LatencyHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewListStudentsHandler(newStore(t), time.Hour).Handle(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDS
// ══════════════════════════════════════════════════════════════════════════════

func TestListFriends_InnerJoinInDirectoryOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveLinks(ctx, []social.FriendLink{
		{LinkID: 1, NRP: "59928341"},
		{LinkID: 2, NRP: "ghost"},
		{LinkID: 3, NRP: "123456678"},
	}))

	res, err := NewListFriendsHandler(store, store, 0).Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"123456678", "59928341"}, nrps(res.Friends))
	assert.Equal(t, 1, res.Orphans)
}

func TestListFriends_OrphanAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveLinks(ctx, []social.FriendLink{{LinkID: 1, NRP: "38469843"}}))

	students := student.SeedStudents()
	require.NoError(t, store.SaveStudents(ctx, append(students[:2:2], students[3])))

	res, err := NewListFriendsHandler(store, store, 0).Handle(ctx)
	require.NoError(t, err)
	assert.NotNil(t, res.Friends)
	assert.Empty(t, res.Friends)
}

func TestIsFriend(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveLinks(ctx, []social.FriendLink{{LinkID: 1, NRP: "45235236"}}))
	h := NewIsFriendHandler(store, 0)

	res, err := h.Handle(ctx, IsFriendQuery{NRP: "45235236"})
	require.NoError(t, err)
	assert.True(t, res.IsFriend)
	assert.Equal(t, social.StateFriend, res.State)

	res, err = h.Handle(ctx, IsFriendQuery{NRP: "38469843"})
	require.NoError(t, err)
	assert.False(t, res.IsFriend)
	assert.Equal(t, social.StateNotFriend, res.State)
}

func TestQueries_TrimNRP(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveLinks(ctx, []social.FriendLink{{LinkID: 1, NRP: "45235236"}}))

	got, err := NewGetStudentHandler(store, 0).Handle(ctx, GetStudentQuery{NRP: " 59928341 "})
	require.NoError(t, err)
	assert.Equal(t, "59928341", got.NRP)

	res, err := NewIsFriendHandler(store, 0).Handle(ctx, IsFriendQuery{NRP: "45235236\n"})
	require.NoError(t, err)
	assert.True(t, res.IsFriend)
	assert.Equal(t, "45235236", res.NRP)
}

func TestComposeFriendEmail(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveLinks(ctx, []social.FriendLink{
		{LinkID: 1, NRP: "38469843"},
		{LinkID: 2, NRP: "ghost"},
	}))
	h := NewComposeFriendEmailHandler(store, store, mail.Composer{})

	res, err := h.Handle(ctx, ComposeFriendEmailQuery{NRP: "38469843"})
	require.NoError(t, err)
	assert.Equal(t, "monica.mon@ubaya.net", res.To)
	assert.Equal(t, "mailto:monica.mon@ubaya.net?subject=Hello%20Friend%21&body=Hi%2C%20how%20are%20you%3F", res.URL)

	_, err = h.Handle(ctx, ComposeFriendEmailQuery{NRP: "45235236"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, ComposeFriendEmailQuery{NRP: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS / INSIGHT
// ══════════════════════════════════════════════════════════════════════════════

func TestGetTheme(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	h := NewGetThemeHandler(store)

	res, err := h.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ThemeDay, res.Theme)

	require.NoError(t, store.SetTheme(ctx, shared.ThemeNight))
	res, err = h.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ThemeNight, res.Theme)
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestGetCareerInsight(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	t.Run("generated", func(t *testing.T) {
		gen := &stubGenerator{reply: "Strong in ML. Roles: data scientist, ML engineer."}
		res, err := NewGetCareerInsightHandler(store, gen, true, 0, nil).Handle(ctx, GetCareerInsightQuery{NRP: "123456678"})
		require.NoError(t, err)
		assert.True(t, res.Generated)
		assert.Equal(t, gen.reply, res.Insight)
		assert.Contains(t, gen.prompt, "Name: Angela Wong\nProgram: DSAI\n")
		assert.Contains(t, gen.prompt, "suggest 2 potential job roles")
	})

	t.Run("empty reply", func(t *testing.T) {
		res, err := NewGetCareerInsightHandler(store, &stubGenerator{}, true, 0, nil).Handle(ctx, GetCareerInsightQuery{NRP: "123456678"})
		require.NoError(t, err)
		assert.False(t, res.Generated)
		assert.Equal(t, InsightEmptyMessage, res.Insight)
	})

	t.Run("generator error is a placeholder", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("timeout")}
		res, err := NewGetCareerInsightHandler(store, gen, true, 0, nil).Handle(ctx, GetCareerInsightQuery{NRP: "123456678"})
		require.NoError(t, err)
		assert.Equal(t, InsightErrorMessage, res.Insight)
	})

	t.Run("missing student", func(t *testing.T) {
		_, err := NewGetCareerInsightHandler(store, &stubGenerator{}, true, 0, nil).Handle(ctx, GetCareerInsightQuery{NRP: "404"})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := NewGetCareerInsightHandler(store, &stubGenerator{}, false, 0, nil).Handle(ctx, GetCareerInsightQuery{NRP: "123456678"})
		assert.True(t, shared.IsFeatureDisabled(err))
	})
}
