package notifier

import (
	"context"
	"time"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
	"zone_scheduler/internal/repository"
)

const defaultAppendTimeout = 5 * time.Second

// ChangeLogNotifier records every event in the change log.
type ChangeLogNotifier struct {
	ChangeLog repository.ChangeLog
	Timeout   time.Duration
	Logger    *logger.Logger
}

var _ Notifier = &ChangeLogNotifier{}

func (c *ChangeLogNotifier) Notify(e models.Event) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultAppendTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := c.ChangeLog.Append(ctx, e); err != nil && c.Logger != nil {
		c.Logger.Errorw("changelog_append_failed", "err", err, "zone", e.ZoneID, "type", e.Type)
	}
}
