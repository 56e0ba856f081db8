package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/shelf/internal/orchestrator"
	"github.com/phrazzld/shelf/internal/store"
)

// Removal names a media row to delete.
type Removal struct {
	Path string
}

// RemoveMissing deletes media rows whose file no longer exists.
type RemoveMissing struct {
	store store.MediaStore
	root  string
}

// NewRemoveMissing creates the remove_missing_files processor. Paths outside
// root are never removed when root is set.
func NewRemoveMissing(mediaStore store.MediaStore, root string) *RemoveMissing {
	return &RemoveMissing{store: mediaStore, root: root}
}

var _ orchestrator.Processor[[]string, string, Removal] = (*RemoveMissing)(nil)

func (p *RemoveMissing) ItemName() string { return "files" }

func (p *RemoveMissing) ProcessActionName() string { return "remove_missing" }

func (p *RemoveMissing) Description() string {
	return "Remove media entries whose file is missing from disk"
}

func (p *RemoveMissing) Analysis(ctx context.Context, env orchestrator.Env, rep *orchestrator.Reporter) ([]string, error) {
	paths, err := p.store.ListPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing media paths: %w", err)
	}
	rep.Log(fmt.Sprintf("%d media file(s) in library", len(paths)))
	return paths, nil
}

// TaskItems keeps the paths that are missing on disk. A path that cannot be
// checked is reported and kept out of the run.
func (p *RemoveMissing) TaskItems(ctx context.Context, env orchestrator.Env, paths []string, rep *orchestrator.Reporter) ([]string, error) {
	var items []string
	for _, path := range paths {
		if !underRoot(p.root, path) {
			continue
		}
		gone, err := missing(path)
		if err != nil {
			rep.LogError(fmt.Sprintf("checking %s: %v", path, err))
			continue
		}
		if gone {
			items = append(items, path)
		}
	}
	return items, nil
}

// ProcessItem re-checks the file; one that reappeared yields no output.
func (p *RemoveMissing) ProcessItem(ctx context.Context, env orchestrator.Env, path string) (*Removal, error) {
	gone, err := missing(path)
	if err != nil {
		return nil, err
	}
	if !gone {
		env.Logger.Info("file reappeared, keeping entry", "path", path)
		return nil, nil
	}
	return &Removal{Path: path}, nil
}

func (p *RemoveMissing) PersistOutput(ctx context.Context, env orchestrator.Env, out Removal) error {
	err := p.store.DeleteByPath(ctx, out.Path)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// AlreadyCompleted is true once the row is gone.
func (p *RemoveMissing) AlreadyCompleted(ctx context.Context, env orchestrator.Env, path string) (bool, error) {
	_, err := p.store.GetByPath(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, err
}

func (p *RemoveMissing) ItemLabel(path string) string { return path }
