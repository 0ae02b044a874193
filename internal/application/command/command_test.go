package command

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/memory"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	store     *persistence.CollectionStore
	publisher *recordingPublisher
	env       Env
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     persistence.NewCollectionStore(memory.New(), nil),
		publisher: &recordingPublisher{},
		now:       time.UnixMilli(1_700_000_000_000),
	}
	f.env = NewEnv(0, f.publisher, func() time.Time { return f.now }, nil)
	return f
}

func newStudent(nrp string) student.Student {
	return student.Student{
		NRP:     nrp,
		Name:    "Student " + nrp,
		Email:   nrp + "@student.ubaya.ac.id",
		Program: student.ProgramIMES,
	}
}

func (f *fixture) students(t *testing.T) []student.Student {
	t.Helper()
	out, err := f.store.LoadStudents(context.Background())
	require.NoError(t, err)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateStudent_AppendsWithDefaultPhoto(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)

	res, err := h.Handle(context.Background(), CreateStudentCommand{Student: newStudent("999")})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, "https://picsum.photos/seed/1700000000000/200/200", res.Student.PhotoURL)

	all := f.students(t)
	require.Len(t, all, 5)
	assert.Equal(t, "999", all[4].NRP)
	assert.Equal(t, []shared.EventType{shared.EventStudentRegistered}, f.publisher.types())
}

func TestCreateStudent_DuplicateIsConflictAndLeavesCollection(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)
	ctx := context.Background()

	_, err := h.Handle(ctx, CreateStudentCommand{Student: newStudent("999")})
	require.NoError(t, err)
	before := f.students(t)

	dup := newStudent("999")
	dup.Name = "Someone Else"
	_, err = h.Handle(ctx, CreateStudentCommand{Student: dup})
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
	assert.Empty(t, cmp.Diff(before, f.students(t)))
}

func TestCreateStudent_UniquenessOverSequence(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)
	ctx := context.Background()

	for _, nrp := range []string{"1", "2", "1", "123456678", "3", "2"} {
		_, _ = h.Handle(ctx, CreateStudentCommand{Student: newStudent(nrp)})
	}

	seen := map[string]bool{}
	for _, s := range f.students(t) {
		assert.False(t, seen[s.NRP], "duplicate nrp %s", s.NRP)
		seen[s.NRP] = true
	}
	assert.Len(t, seen, 7)
}

func TestCreateStudent_PaddedNRPIsTheSameKey(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)
	ctx := context.Background()

	_, err := h.Handle(ctx, CreateStudentCommand{Student: newStudent("999")})
	require.NoError(t, err)

	_, err = h.Handle(ctx, CreateStudentCommand{Student: newStudent(" 999 ")})
	assert.True(t, shared.IsConflict(err))

	res, err := h.Handle(ctx, CreateStudentCommand{Student: newStudent("\t1000 ")})
	require.NoError(t, err)
	assert.Equal(t, "1000", res.Student.NRP)

	all := f.students(t)
	require.Len(t, all, 6)
	assert.Equal(t, "1000", all[5].NRP)
}

func TestCommands_TrimNRP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := NewCreateStudentHandler(f.store, f.env).Handle(ctx, CreateStudentCommand{Student: newStudent("999")})
	require.NoError(t, err)

	updated := newStudent("")
	updated.Name = "Renamed"
	res, err := NewUpdateStudentHandler(f.store, f.env).Handle(ctx, UpdateStudentCommand{NRP: " 999", Student: updated})
	require.NoError(t, err)
	assert.Equal(t, "999", res.Student.NRP)

	padded := newStudent(" 999 ")
	_, err = NewUpdateStudentHandler(f.store, f.env).Handle(ctx, UpdateStudentCommand{NRP: "999", Student: padded})
	require.NoError(t, err, "a padded payload NRP is not a mismatch")

	added, err := NewAddFriendHandler(f.store, f.env).Handle(ctx, AddFriendCommand{NRP: "999 "})
	require.NoError(t, err)
	assert.True(t, added.Added)
	again, err := NewAddFriendHandler(f.store, f.env).Handle(ctx, AddFriendCommand{NRP: "999"})
	require.NoError(t, err)
	assert.False(t, again.Added)

	links, err := f.store.LoadLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "999", links[0].NRP)

	deleted, err := NewDeleteStudentHandler(f.store, f.env).Handle(ctx, DeleteStudentCommand{NRP: " 999 "})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Len(t, f.students(t), 4)
}

func TestCreateStudent_Validation(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)

	s := newStudent("1")
	s.Email = ""
	_, err := h.Handle(context.Background(), CreateStudentCommand{Student: s})
	assert.True(t, shared.IsValidation(err))

	s = newStudent("1")
	s.Program = "LAW"
	_, err = h.Handle(context.Background(), CreateStudentCommand{Student: s})
	assert.True(t, shared.IsValidation(err))
}

func TestCreateStudent_ConcurrentWritesAreSerialised(t *testing.T) {
	f := newFixture(t)
	h := NewCreateStudentHandler(f.store, f.env)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.Handle(context.Background(), CreateStudentCommand{Student: newStudent(strings.Repeat("9", i+1))})
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.students(t), 24)
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE / DELETE
// ══════════════════════════════════════════════════════════════════════════════

func TestUpdateStudent_RoundTrip(t *testing.T) {
	f := newFixture(t)
	h := NewUpdateStudentHandler(f.store, f.env)

	want := student.SeedStudents()[2]
	want.AboutMe = "Now into sound design."
	want.PhotoURL = ""

	res, err := h.Handle(context.Background(), UpdateStudentCommand{NRP: want.NRP, Student: want})
	require.NoError(t, err)
	assert.True(t, res.PhotoChanged)

	all := f.students(t)
	idx := student.IndexOf(all, want.NRP)
	require.Equal(t, 2, idx, "update keeps position")
	assert.Empty(t, cmp.Diff(want, all[idx]))
}

func TestUpdateStudent_EmptyPayloadNRPIsFilled(t *testing.T) {
	f := newFixture(t)
	h := NewUpdateStudentHandler(f.store, f.env)

	payload := student.SeedStudents()[0]
	payload.NRP = ""
	res, err := h.Handle(context.Background(), UpdateStudentCommand{NRP: "123456678", Student: payload})
	require.NoError(t, err)
	assert.Equal(t, "123456678", res.Student.NRP)
	assert.False(t, res.PhotoChanged)
}

func TestUpdateStudent_Errors(t *testing.T) {
	f := newFixture(t)
	h := NewUpdateStudentHandler(f.store, f.env)
	ctx := context.Background()

	_, err := h.Handle(ctx, UpdateStudentCommand{NRP: "404", Student: newStudent("404")})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, UpdateStudentCommand{NRP: "123456678", Student: newStudent("555")})
	assert.ErrorIs(t, err, shared.ErrNRPMismatch)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, -1, student.IndexOf(f.students(t), "555"))
}

func TestDeleteStudent_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := NewDeleteStudentHandler(f.store, f.env)
	ctx := context.Background()

	first, err := h.Handle(ctx, DeleteStudentCommand{NRP: "38469843"})
	require.NoError(t, err)
	assert.True(t, first.Deleted)
	after := f.students(t)

	second, err := h.Handle(ctx, DeleteStudentCommand{NRP: "38469843"})
	require.NoError(t, err)
	assert.False(t, second.Deleted)
	assert.Empty(t, cmp.Diff(after, f.students(t)))
	assert.Len(t, after, 3)

	assert.Equal(t, []shared.EventType{shared.EventStudentDeleted}, f.publisher.types())
}

// ══════════════════════════════════════════════════════════════════════════════
// PHOTO
// ══════════════════════════════════════════════════════════════════════════════

var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestUploadPhoto(t *testing.T) {
	f := newFixture(t)
	h := NewUploadPhotoHandler(f.store, f.env, 0, true)
	ctx := context.Background()

	res, err := h.Handle(ctx, UploadPhotoCommand{NRP: "45235236", Data: tinyPNG})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MIMEType)
	assert.True(t, strings.HasPrefix(res.Student.PhotoURL, "data:image/png;base64,"))

	stored := f.students(t)[1]
	assert.Equal(t, res.Student.PhotoURL, stored.PhotoURL)

	_, err = h.Handle(ctx, UploadPhotoCommand{NRP: "45235236", Data: []byte("plain text")})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, UploadPhotoCommand{NRP: "404", Data: tinyPNG})
	assert.True(t, shared.IsNotFound(err))

	_, err = NewUploadPhotoHandler(f.store, f.env, 10, true).Handle(ctx, UploadPhotoCommand{NRP: "45235236", Data: tinyPNG})
	assert.True(t, shared.IsValidation(err))

	_, err = NewUploadPhotoHandler(f.store, f.env, 0, false).Handle(ctx, UploadPhotoCommand{NRP: "45235236", Data: tinyPNG})
	assert.True(t, shared.IsFeatureDisabled(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDS
// ══════════════════════════════════════════════════════════════════════════════

func TestUpdateStudent_ChecksEmbeddedPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewUpdateStudentHandler(f.store, f.env)

	rec := f.students(t)[0]
	rec.PhotoURL = "data:image/png;base64,bm90IGFuIGltYWdl"
	_, err := h.Handle(ctx, UpdateStudentCommand{NRP: rec.NRP, Student: rec})
	assert.True(t, shared.IsValidation(err))

	rec.PhotoURL = "data:image/png;base64,@@@"
	_, err = h.Handle(ctx, UpdateStudentCommand{NRP: rec.NRP, Student: rec})
	assert.True(t, shared.IsValidation(err))

	rec.PhotoURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
	_, err = h.WithPhotoLimit(10).Handle(ctx, UpdateStudentCommand{NRP: rec.NRP, Student: rec})
	assert.True(t, shared.IsValidation(err), "the limit applies to the decoded bytes")

	res, err := h.WithPhotoLimit(1024).Handle(ctx, UpdateStudentCommand{NRP: rec.NRP, Student: rec})
	require.NoError(t, err)
	assert.True(t, res.PhotoChanged)
	assert.True(t, strings.HasPrefix(res.Student.PhotoURL, "data:image/png;base64,"), "stored with the sniffed type")
	assert.Equal(t, res.Student.PhotoURL, f.students(t)[0].PhotoURL)

	rec.PhotoURL = "https://picsum.photos/seed/x/200/200"
	_, err = h.Handle(ctx, UpdateStudentCommand{NRP: rec.NRP, Student: rec})
	require.NoError(t, err, "plain URLs are stored as given")
}

func TestAddFriend_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := NewAddFriendHandler(f.store, f.env)
	ctx := context.Background()

	first, err := h.Handle(ctx, AddFriendCommand{NRP: "X"})
	require.NoError(t, err)
	assert.True(t, first.Added)
	assert.Equal(t, 1, first.TotalCount)

	second, err := h.Handle(ctx, AddFriendCommand{NRP: "X"})
	require.NoError(t, err)
	assert.False(t, second.Added)
	assert.Equal(t, first.TotalCount, second.TotalCount)

	links, err := f.store.LoadLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)
	assert.Equal(t, []shared.EventType{shared.EventFriendAdded}, f.publisher.types())
}

func TestAddFriend_LinkIDsStrictlyIncrease(t *testing.T) {
	f := newFixture(t)
	h := NewAddFriendHandler(f.store, f.env)
	ctx := context.Background()

	var ids []int64
	for _, nrp := range []string{"a", "b", "c"} {
		res, err := h.Handle(ctx, AddFriendCommand{NRP: nrp})
		require.NoError(t, err)
		ids = append(ids, res.LinkID)
	}
	assert.Equal(t, []int64{1_700_000_000_000, 1_700_000_000_001, 1_700_000_000_002}, ids)
}

func TestAddFriend_LinkIDAboveStoredMaximum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveLinks(ctx, []social.FriendLink{{LinkID: 1_800_000_000_000, NRP: "old"}}))

	res, err := NewAddFriendHandler(f.store, f.env).Handle(ctx, AddFriendCommand{NRP: "new"})
	require.NoError(t, err)
	assert.Equal(t, int64(1_800_000_000_001), res.LinkID)
	assert.Equal(t, 2, res.TotalCount)
}

func TestAddFriend_BlankNRP(t *testing.T) {
	f := newFixture(t)
	_, err := NewAddFriendHandler(f.store, f.env).Handle(context.Background(), AddFriendCommand{NRP: "  "})
	assert.True(t, shared.IsValidation(err))
}

func TestResetFriends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	add := NewAddFriendHandler(f.store, f.env)
	for _, nrp := range []string{"a", "b"} {
		_, err := add.Handle(ctx, AddFriendCommand{NRP: nrp})
		require.NoError(t, err)
	}

	res, err := NewResetFriendsHandler(f.store, f.env).Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)

	links, err := f.store.LoadLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	again, err := add.Handle(ctx, AddFriendCommand{NRP: "a"})
	require.NoError(t, err)
	assert.True(t, again.Added)
}

func TestResetFriends_ClearsCorruptLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.KV().Set(ctx, persistence.KeyFriendLinks, []byte("garbage")))

	res, err := NewResetFriendsHandler(f.store, f.env).Handle(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Removed)

	links, err := f.store.LoadLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

func TestSetTheme(t *testing.T) {
	f := newFixture(t)
	h := NewSetThemeHandler(f.store, f.env)
	ctx := context.Background()

	res, err := h.Handle(ctx, SetThemeCommand{Theme: "dark"})
	require.NoError(t, err)
	assert.Equal(t, shared.ThemeNight, res.Theme)

	res, err = h.Handle(ctx, SetThemeCommand{Toggle: true})
	require.NoError(t, err)
	assert.Equal(t, shared.ThemeDay, res.Theme)

	_, err = h.Handle(ctx, SetThemeCommand{Theme: "sepia"})
	assert.True(t, shared.IsValidation(err))
}

func TestResetData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewCreateStudentHandler(f.store, f.env).Handle(ctx, CreateStudentCommand{Student: newStudent("999")})
	require.NoError(t, err)
	_, err = NewAddFriendHandler(f.store, f.env).Handle(ctx, AddFriendCommand{NRP: "999"})
	require.NoError(t, err)
	require.NoError(t, f.store.SetTheme(ctx, shared.ThemeNight))

	require.NoError(t, NewResetDataHandler(f.store, f.env).Handle(ctx))

	assert.Empty(t, cmp.Diff(student.SeedStudents(), f.students(t)))
	theme, err := f.store.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ThemeDay, theme)
}

// ══════════════════════════════════════════════════════════════════════════════
// LATENCY
// ══════════════════════════════════════════════════════════════════════════════

func TestEnv_LatencyHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	env := NewEnv(time.Hour, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCreateStudentHandler(f.store, env).Handle(ctx, CreateStudentCommand{Student: newStudent("1")})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, f.students(t), 4)
}

// ══════════════════════════════════════════════════════════════════════════════
// REFINE
// ══════════════════════════════════════════════════════════════════════════════

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestRefineText(t *testing.T) {
	ctx := context.Background()

	t.Run("success trims reply", func(t *testing.T) {
		gen := &stubGenerator{reply: "  A polished bio.\n"}
		res, err := NewRefineTextHandler(gen, true, nil).Handle(ctx, RefineTextCommand{Field: RefineAboutMe, Text: "i like code"})
		require.NoError(t, err)
		assert.True(t, res.Refined)
		assert.Equal(t, "A polished bio.", res.Text)
		assert.Contains(t, gen.prompt, "profile bio")
		assert.Contains(t, gen.prompt, "Text: i like code")
	})

	t.Run("failure keeps original", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("offline")}
		res, err := NewRefineTextHandler(gen, true, nil).Handle(ctx, RefineTextCommand{Field: RefineExperiences, Text: "intern at x"})
		require.NoError(t, err)
		assert.False(t, res.Refined)
		assert.Equal(t, "intern at x", res.Text)
		assert.Equal(t, RefineFailedMessage, res.Message)
	})

	t.Run("nil generator keeps original", func(t *testing.T) {
		res, err := NewRefineTextHandler(nil, true, nil).Handle(ctx, RefineTextCommand{Field: RefineAboutMe, Text: "i like code"})
		require.NoError(t, err)
		assert.False(t, res.Refined)
		assert.Equal(t, RefineAboutMe, res.Field)
		assert.Equal(t, "i like code", res.Text)
		assert.Equal(t, RefineFailedMessage, res.Message)
	})

	t.Run("too short", func(t *testing.T) {
		gen := &stubGenerator{}
		_, err := NewRefineTextHandler(gen, true, nil).Handle(ctx, RefineTextCommand{Field: RefineCourseList, Text: "abcd"})
		assert.ErrorIs(t, err, shared.ErrTextTooShort)
		assert.Empty(t, gen.prompt)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := NewRefineTextHandler(&stubGenerator{}, false, nil).Handle(ctx, RefineTextCommand{Field: RefineAboutMe, Text: "long enough"})
		assert.True(t, shared.IsFeatureDisabled(err))
	})
}

func TestParseRefineField(t *testing.T) {
	for in, want := range map[string]RefineField{
		"aboutMe":       RefineAboutMe,
		"myExperiences": RefineExperiences,
		"experiences":   RefineExperiences,
		"myCourse":      RefineCourseList,
		"courseList":    RefineCourseList,
	} {
		got, err := ParseRefineField(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseRefineField("name")
	assert.ErrorIs(t, err, shared.ErrUnknownRefineField)
}
