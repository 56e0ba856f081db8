package media

import (
	"log/slog"

	"github.com/phrazzld/shelf/internal/orchestrator"
	"github.com/phrazzld/shelf/internal/store"
	"github.com/phrazzld/shelf/internal/task"
)

// Actions returns the orchestrated media actions backed by mediaStore.
func Actions(mediaStore store.MediaStore, root string, logger *slog.Logger) []task.Action {
	return []task.Action{
		orchestrator.New(NewAddHash(mediaStore, root), logger),
		orchestrator.New(NewRemoveMissing(mediaStore, root), logger),
	}
}
