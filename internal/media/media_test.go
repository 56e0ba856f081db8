package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/phrazzld/shelf/internal/orchestrator"
	"github.com/phrazzld/shelf/internal/store"
	"github.com/phrazzld/shelf/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMediaStore keeps media rows in memory, keyed by path.
type fakeMediaStore struct {
	mu      sync.Mutex
	rows    map[string]*store.Media
	nextID  int64
	listErr error
}

func newFakeMediaStore(paths ...string) *fakeMediaStore {
	s := &fakeMediaStore{rows: make(map[string]*store.Media)}
	for _, p := range paths {
		s.nextID++
		s.rows[p] = &store.Media{ID: s.nextID, Path: p}
	}
	return s
}

func (s *fakeMediaStore) sorted() []store.Media {
	out := make([]store.Media, 0, len(s.rows))
	for _, m := range s.rows {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeMediaStore) ListWithoutHash(ctx context.Context) ([]store.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []store.Media
	for _, m := range s.sorted() {
		if m.Hash == "" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMediaStore) ListPaths(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []string
	for _, m := range s.sorted() {
		out = append(out, m.Path)
	}
	return out, nil
}

func (s *fakeMediaStore) GetByPath(ctx context.Context, path string) (*store.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[path]
	if !ok {
		return nil, store.ErrMediaNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMediaStore) SetHash(ctx context.Context, path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[path]
	if !ok {
		return store.ErrMediaNotFound
	}
	m.Hash = hash
	return nil
}

func (s *fakeMediaStore) DeleteByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[path]; !ok {
		return store.ErrMediaNotFound
	}
	delete(s.rows, path)
	return nil
}

func (s *fakeMediaStore) hash(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.rows[path]; ok {
		return m.Hash
	}
	return ""
}

func (s *fakeMediaStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[path]
	return ok
}

// collectSender records every message sent on the run channel.
type collectSender struct {
	mu   sync.Mutex
	msgs []task.Message
}

func (c *collectSender) Send(msg task.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *collectSender) texts(kind task.MessageKind) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.Kind == kind {
			out = append(out, m.Text)
		}
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func sha(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func findAction(t *testing.T, actions []task.Action, name string) task.Action {
	t.Helper()
	for _, a := range actions {
		if a.Name() == name {
			return a
		}
	}
	t.Fatalf("action %q not found", name)
	return nil
}

func TestActions_Names(t *testing.T) {
	actions := Actions(newFakeMediaStore(), "", setupTestLogger())
	require.Len(t, actions, 2)
	assert.Equal(t, "add_hash", actions[0].Name())
	assert.Equal(t, "Add Hash", actions[0].Label())
	assert.Equal(t, "remove_missing_files", actions[1].Name())
	assert.Equal(t, "Remove Missing Files", actions[1].Label())

	_, err := task.NewRegistry(actions...)
	assert.NoError(t, err)
}

func TestAddHash_HashesEveryFile(t *testing.T) {
	for _, mode := range []string{"linear", "parallel"} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			a := writeFile(t, dir, "a.mkv", "alpha")
			b := writeFile(t, dir, "b.mkv", "bravo")
			gone := filepath.Join(dir, "gone.mkv")

			s := newFakeMediaStore(a, b, gone)
			action := findAction(t, Actions(s, "", setupTestLogger()), "add_hash")
			opts, err := task.OptionsForMode(mode)
			require.NoError(t, err)

			out := &collectSender{}
			err = action.RunTask(context.Background(), nil, out, false, 1, opts)
			require.NoError(t, err)

			assert.Equal(t, sha("alpha"), s.hash(a))
			assert.Equal(t, sha("bravo"), s.hash(b))
			assert.Empty(t, s.hash(gone))

			errs := out.texts(task.KindLogError)
			require.Len(t, errs, 1, "the missing file is reported, not fatal")
			assert.Contains(t, errs[0], gone)
		})
	}
}

func TestAddHash_DryRunPersistsNothing(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.mkv", "alpha")
	s := newFakeMediaStore(a)

	action := findAction(t, Actions(s, "", setupTestLogger()), "add_hash")
	out := &collectSender{}
	require.NoError(t, action.RunTask(context.Background(), nil, out, true, 1, task.LinearOptions()))

	assert.Empty(t, s.hash(a))
	assert.Contains(t, out.texts(task.KindLogInfo), "dry run: would persist output for "+a)
}

func TestAddHash_RootFiltersItems(t *testing.T) {
	dir := t.TempDir()
	inside := writeFile(t, dir, "a.mkv", "alpha")
	s := newFakeMediaStore(inside, "/elsewhere/b.mkv")

	p := NewAddHash(s, dir)
	media, err := s.ListWithoutHash(context.Background())
	require.NoError(t, err)

	items, err := p.TaskItems(context.Background(), testEnv(), media, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{inside}, items)
}

func TestAddHash_AlreadyCompleted(t *testing.T) {
	s := newFakeMediaStore("/lib/a.mkv", "/lib/b.mkv")
	require.NoError(t, s.SetHash(context.Background(), "/lib/b.mkv", "x"))
	p := NewAddHash(s, "")
	ctx := context.Background()

	done, err := p.AlreadyCompleted(ctx, testEnv(), "/lib/a.mkv")
	require.NoError(t, err)
	assert.False(t, done)

	done, err = p.AlreadyCompleted(ctx, testEnv(), "/lib/b.mkv")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = p.AlreadyCompleted(ctx, testEnv(), "/lib/deleted.mkv")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestAddHash_AnalysisFailureAbortsRun(t *testing.T) {
	s := newFakeMediaStore()
	s.listErr = errors.New("database unavailable")

	action := findAction(t, Actions(s, "", setupTestLogger()), "add_hash")
	err := action.RunTask(context.Background(), nil, &collectSender{}, false, 1, task.LinearOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrPipelineFailed)
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestRemoveMissing_DeletesOnlyMissing(t *testing.T) {
	for _, mode := range []string{"linear", "extreme"} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			present := writeFile(t, dir, "present.flac", "la")
			gone1 := filepath.Join(dir, "gone1.flac")
			gone2 := filepath.Join(dir, "gone2.flac")

			s := newFakeMediaStore(present, gone1, gone2)
			action := findAction(t, Actions(s, "", setupTestLogger()), "remove_missing_files")
			opts, err := task.OptionsForMode(mode)
			require.NoError(t, err)

			require.NoError(t, action.RunTask(context.Background(), nil, &collectSender{}, false, 3, opts))

			assert.True(t, s.has(present))
			assert.False(t, s.has(gone1))
			assert.False(t, s.has(gone2))
		})
	}
}

func TestRemoveMissing_ReappearedFileIsKept(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "back.flac", "la")
	p := NewRemoveMissing(newFakeMediaStore(path), "")

	out, err := p.ProcessItem(context.Background(), testEnv(), path)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = p.ProcessItem(context.Background(), testEnv(), filepath.Join(dir, "nope.flac"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, filepath.Join(dir, "nope.flac"), out.Path)
}

func TestRemoveMissing_PersistToleratesVanishedRow(t *testing.T) {
	p := NewRemoveMissing(newFakeMediaStore(), "")
	assert.NoError(t, p.PersistOutput(context.Background(), testEnv(), Removal{Path: "/lib/x"}))
}

func TestUnderRoot(t *testing.T) {
	assert.True(t, underRoot("", "/anything"))
	assert.True(t, underRoot("/lib", "/lib/a/b.mkv"))
	assert.True(t, underRoot("/lib/", "/lib/a.mkv"))
	assert.False(t, underRoot("/lib", "/library/a.mkv"))
	assert.False(t, underRoot("/lib", "/lib/../etc/passwd"))
}

func testEnv() orchestrator.Env {
	return orchestrator.Env{TaskID: 1, Logger: setupTestLogger()}
}
