package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/shelf/internal/orchestrator"
	"github.com/phrazzld/shelf/internal/store"
)

// HashOutput is the content hash computed for one file.
type HashOutput struct {
	Path string
	Hash string
}

// AddHash computes the SHA-256 of every media file that has no hash yet.
type AddHash struct {
	store store.MediaStore
	root  string
}

// NewAddHash creates the add_hash processor. Paths outside root are skipped
// when root is set.
func NewAddHash(mediaStore store.MediaStore, root string) *AddHash {
	return &AddHash{store: mediaStore, root: root}
}

var _ orchestrator.Processor[[]store.Media, string, HashOutput] = (*AddHash)(nil)

func (p *AddHash) ItemName() string { return "hash" }

func (p *AddHash) ProcessActionName() string { return "add" }

func (p *AddHash) Description() string {
	return "Compute the SHA-256 content hash of media files that do not have one"
}

func (p *AddHash) Analysis(ctx context.Context, env orchestrator.Env, rep *orchestrator.Reporter) ([]store.Media, error) {
	media, err := p.store.ListWithoutHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing media without hash: %w", err)
	}
	rep.Log(fmt.Sprintf("%d media file(s) without a hash", len(media)))
	return media, nil
}

func (p *AddHash) TaskItems(ctx context.Context, env orchestrator.Env, media []store.Media, rep *orchestrator.Reporter) ([]string, error) {
	items := make([]string, 0, len(media))
	for _, m := range media {
		if !underRoot(p.root, m.Path) {
			env.Logger.Debug("skipping media outside root", "path", m.Path, "root", p.root)
			continue
		}
		items = append(items, m.Path)
	}
	return items, nil
}

func (p *AddHash) ProcessItem(ctx context.Context, env orchestrator.Env, path string) (*HashOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return &HashOutput{Path: path, Hash: hex.EncodeToString(h.Sum(nil))}, nil
}

func (p *AddHash) PersistOutput(ctx context.Context, env orchestrator.Env, out HashOutput) error {
	return p.store.SetHash(ctx, out.Path, out.Hash)
}

// AlreadyCompleted is true once the row has a hash or no longer exists.
func (p *AddHash) AlreadyCompleted(ctx context.Context, env orchestrator.Env, path string) (bool, error) {
	m, err := p.store.GetByPath(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return m.Hash != "", nil
}

func (p *AddHash) ItemLabel(path string) string { return path }
