package workflow

import (
	"context"
	"errors"

	"scribe/internal/logging"
	"scribe/internal/queue"
)

// RunItem drives a single queue item through the configured pipeline
// synchronously, stage by stage, until no stage accepts its status. The
// returned item reflects the final persisted state. Stage failures mark
// the item failed and surface the stage error.
func (m *Manager) RunItem(ctx context.Context, item *queue.Item) (*queue.Item, error) {
	if item == nil {
		return nil, errors.New("queue item is required")
	}
	m.mu.RLock()
	configured := len(m.statusOrder) > 0
	m.mu.RUnlock()
	if !configured {
		return item, errors.New("workflow stages not configured")
	}

	logger := m.logger.With(logging.String(logging.FieldComponent, "workflow-oneshot"))
	for {
		if err := ctx.Err(); err != nil {
			return item, err
		}
		if _, ok := m.stageForStatus(item.Status); !ok {
			return item, nil
		}
		if err := m.processItem(ctx, logger, item); err != nil {
			return item, err
		}
	}
}
