package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/logger"
)

// Pruner deletes rows older than cutoff.
type Pruner func(ctx context.Context, cutoff time.Time) (int64, error)

// RetentionJob prunes one table down to a rolling retention window.
type RetentionJob struct {
	name      string
	retention time.Duration
	prune     Pruner
	logg      *logger.Logger
	now       func() time.Time
}

func NewRetentionJob(name string, retention time.Duration, prune Pruner, logg *logger.Logger) (*RetentionJob, error) {
	if name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("%s: retention must be positive", name)
	}
	if prune == nil {
		return nil, fmt.Errorf("%s: pruner required", name)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RetentionJob{name: name, retention: retention, prune: prune, logg: logg, now: time.Now}, nil
}

func (j *RetentionJob) Name() string { return j.name }

func (j *RetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	}), "retention prune complete")
	return deleted, nil
}
