package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaya-hub/student-hub/internal/application/query"
	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/memory"
	"github.com/ubaya-hub/student-hub/internal/infrastructure/persistence/redis"
)

// 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// isolate clears the environment variables Load reads so the host
// environment cannot leak into a test, and turns off simulated latency.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HUB_CONFIG", "STORAGE_DRIVER", "SQLITE_PATH", "HUB_LATENCY",
		"GEMINI_API_KEY", "LOG_LEVEL", "LOG_FORMAT",
		"FEATURE_CAREER_INSIGHT", "FEATURE_TEXT_REFINE", "FEATURE_PHOTO_UPLOAD",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HUB_LATENCY", "0")
}

// hub runs commands against one SQLite file, so state carries over between
// calls the way it does between terminal invocations.
type hub struct {
	t  *testing.T
	db string
}

func newHub(t *testing.T) *hub {
	isolate(t)
	return &hub{t: t, db: filepath.Join(t.TempDir(), "hub.db")}
}

func (h *hub) run(args ...string) (string, error) {
	return h.runWithInput(nil, args...)
}

func (h *hub) runWithInput(stdin io.Reader, args ...string) (string, error) {
	h.t.Helper()

	root := newRootCmd(io.Discard)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--driver", "sqlite", "--sqlite-path", h.db}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *hub) json(v any, args ...string) {
	h.t.Helper()
	out, err := h.run(append([]string{"--json"}, args...)...)
	require.NoError(h.t, err)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), out)
}

func TestStudents_Lifecycle(t *testing.T) {
	h := newHub(t)

	out, err := h.run("students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Angela Wong")
	assert.Contains(t, out, "Julian Casablancas")

	var created struct {
		Student struct {
			NRP      string `json:"nrp"`
			PhotoURL string `json:"photoUrl"`
		} `json:"student"`
		Total int `json:"total"`
	}
	h.json(&created, "students", "add",
		"--nrp", "160420001", "--name", "Ayu Lestari",
		"--email", "ayu@ubaya.net", "--program", "ncs")
	assert.Equal(t, "160420001", created.Student.NRP)
	assert.Equal(t, 5, created.Total)
	assert.NotEmpty(t, created.Student.PhotoURL, "a placeholder photo is assigned")

	_, err = h.run("students", "add", "--nrp", "160420001", "--name", "Again", "--email", "a@b.c", "--program", "GD")
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = h.run("students", "add", "--nrp", "1", "--name", "X", "--email", "x@y.z", "--program", "ART")
	assert.ErrorIs(t, err, shared.ErrInvalidProgram)

	out, err = h.run("students", "get", "160420001")
	require.NoError(t, err)
	assert.Contains(t, out, "Ayu Lestari")
	assert.Contains(t, out, "NCS")

	_, err = h.run("students", "update", "160420001", "--name", "Ayu L.")
	require.NoError(t, err)

	var got struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	h.json(&got, "students", "get", "160420001")
	assert.Equal(t, "Ayu L.", got.Name)
	assert.Equal(t, "ayu@ubaya.net", got.Email, "fields without a flag are kept")

	var found query.SearchStudentsResult
	h.json(&found, "students", "search", "dsai")
	assert.Equal(t, 1, found.Total)

	out, err = h.run("students", "delete", "160420001")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 160420001")

	out, err = h.run("students", "delete", "160420001")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to delete")

	_, err = h.run("students", "get", "160420001")
	assert.True(t, shared.IsNotFound(err))
}

func TestStudents_Photo(t *testing.T) {
	h := newHub(t)

	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, tinyPNG, 0o600))

	var res struct {
		MIMEType string `json:"mimeType"`
		Student  struct {
			PhotoURL string `json:"photoUrl"`
		} `json:"student"`
	}
	h.json(&res, "students", "photo", "38469843", path)
	assert.Equal(t, "image/png", res.MIMEType)
	assert.True(t, strings.HasPrefix(res.Student.PhotoURL, "data:image/png;base64,"))

	out, err := h.run("students", "get", "38469843")
	require.NoError(t, err)
	assert.Contains(t, out, "embedded image/png")

	_, err = h.runWithInput(strings.NewReader("not an image"), "students", "photo", "38469843", "-")
	assert.True(t, shared.IsValidation(err), "got %v", err)
}

func TestFriends(t *testing.T) {
	h := newHub(t)

	_, err := h.run("friends", "mail", "38469843")
	assert.True(t, shared.IsNotFound(err), "only friends get a mail link")

	out, err := h.run("friends", "add", "38469843")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 38469843")

	out, err = h.run("friends", "add", "38469843")
	require.NoError(t, err)
	assert.Contains(t, out, "already a friend")

	out, err = h.run("friends", "check", "38469843")
	require.NoError(t, err)
	assert.Equal(t, "38469843: friend\n", out)

	out, err = h.run("friends", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Monica")

	out, err = h.run("friends", "mail", "38469843")
	require.NoError(t, err)
	assert.Equal(t, "mailto:monica.mon@ubaya.net?subject=Hello%20Friend%21&body=Hi%2C%20how%20are%20you%3F\n", out)

	_, err = h.run("friends", "reset")
	assert.ErrorIs(t, err, errNeedsConfirmation)

	out, err = h.run("friends", "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 friends.\n", out)

	out, err = h.run("friends", "list")
	require.NoError(t, err)
	assert.Equal(t, "No friends yet.\n", out)
}

func TestSettings(t *testing.T) {
	h := newHub(t)

	out, err := h.run("settings", "theme")
	require.NoError(t, err)
	assert.Equal(t, "day\n", out)

	_, err = h.run("settings", "theme", "toggle")
	require.NoError(t, err)

	out, err = h.run("settings", "theme")
	require.NoError(t, err)
	assert.Equal(t, "night\n", out, "the theme persists between runs")

	_, err = h.run("settings", "theme", "sepia")
	assert.True(t, shared.IsValidation(err))

	_, err = h.run("students", "delete", "123456678")
	require.NoError(t, err)

	_, err = h.run("settings", "reset")
	assert.ErrorIs(t, err, errNeedsConfirmation)

	_, err = h.run("settings", "reset", "--yes")
	require.NoError(t, err)

	out, err = h.run("settings", "theme")
	require.NoError(t, err)
	assert.Equal(t, "day\n", out)

	out, err = h.run("students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Angela Wong", "the seed returns after a reset")
}

func TestAssistant_WithoutKey(t *testing.T) {
	h := newHub(t)

	out, err := h.run("insight", "38469843")
	require.NoError(t, err)
	assert.Equal(t, query.InsightErrorMessage+"\n", out)

	_, err = h.run("insight", "00000000")
	assert.True(t, shared.IsNotFound(err))

	_, err = h.run("refine", "aboutMe", "hey")
	assert.ErrorIs(t, err, shared.ErrTextTooShort)

	_, err = h.run("refine", "hobbies", "long enough text")
	assert.ErrorIs(t, err, shared.ErrUnknownRefineField)

	out, err = h.run("refine", "aboutMe", "i", "like", "robots")
	require.NoError(t, err)
	assert.Equal(t, "i like robots\n", out, "the original text comes back unchanged")
}

func TestFeatureFlagDisablesPhotoUpload(t *testing.T) {
	h := newHub(t)
	t.Setenv("FEATURE_PHOTO_UPLOAD", "false")

	_, err := h.runWithInput(bytes.NewReader(tinyPNG), "students", "photo", "38469843", "-")
	assert.ErrorIs(t, err, shared.ErrFeatureDisabled)
}

func TestSetup(t *testing.T) {
	isolate(t)

	root := newRootCmd(io.Discard)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--driver", "cassandra", "students", "list"})
	err := root.Execute()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")

	var out bytes.Buffer
	root = newRootCmd(io.Discard)
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "student-hub "))
}

// syncBuffer is a bytes.Buffer safe for the server's log writes.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestServe_StopsOnCancel(t *testing.T) {
	isolate(t)

	var logs syncBuffer
	root := newRootCmd(&logs)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--driver", "memory", "serve", "--host", "127.0.0.1", "--port", "0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "starting HTTP server")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
	assert.Contains(t, logs.String(), "student hub stopped")
}

func TestRedisKVIsFoundForEventMirroring(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	rk, ok := redisKV(redis.NewFromClient(client, "hub"))
	require.True(t, ok)
	assert.Same(t, client, rk.Client())

	_, ok = redisKV(memory.New())
	assert.False(t, ok)
}
