package migratable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harness/harbor-migrator/module/migrate/copier"
	"github.com/harness/harbor-migrator/module/migrate/engine"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/module/migrate/util"
	"github.com/harness/harbor-migrator/util/common"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// Copy migrates one (artifact, tag) task. A failed copy is recorded in stats and does not
// fail the job, so one bad artifact never stops its siblings.
type Copy struct {
	task   types.MigrationTask
	copier copier.Copier
	stats  *types.TransferStats
	dryRun bool
	logger zerolog.Logger
	skip   bool
}

func NewCopyJob(task types.MigrationTask, c copier.Copier, stats *types.TransferStats, dryRun bool) engine.Job {
	jobLogger := log.With().
		Str("job_type", "copy").
		Str("job_id", uuid.New().String()).
		Int("line", task.Line).
		Str("source", task.Source).
		Str("destination", task.Destination).
		Logger()

	return &Copy{
		task:   task,
		copier: c,
		stats:  stats,
		dryRun: dryRun,
		logger: jobLogger,
	}
}

func (r *Copy) Info() string {
	return r.task.Source + " -> " + r.task.Destination
}

func (r *Copy) stat(status types.Status, err error) types.TaskStat {
	s := types.TaskStat{
		Line:        r.task.Line,
		Source:      r.task.Source,
		Destination: r.task.Destination,
		Size:        common.GetSize(r.task.Size),
		Status:      status,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Pre marks the task as skipped in dry-run mode. References are handed to the copier
// as they are; a malformed one fails there and is recorded with the copy error.
func (r *Copy) Pre(ctx context.Context) error {
	if !r.dryRun {
		return nil
	}
	r.logger.Debug().Str("step", "pre").Str("trace_id", engine.TraceID(ctx)).Msg("Dry run, skipping copy")
	util.GetSkipPrinter().Println(fmt.Sprintf("[dry-run] %s", r.Info()))
	r.stats.Add(r.stat(types.StatusSkip, nil))
	r.skip = true
	return nil
}

func (r *Copy) Migrate(ctx context.Context) error {
	if r.skip {
		return nil
	}
	logger := r.logger.With().Str("step", "migrate").Str("trace_id", engine.TraceID(ctx)).Logger()
	logger.Debug().Msg("Starting copy")
	startTime := time.Now()

	title := fmt.Sprintf("%s (%s)", r.Info(), common.GetSize(r.task.Size))
	if err := r.copier.Copy(ctx, r.task.Source, r.task.Destination); err != nil {
		err = errors.NewArtifactError("copy", r.task.Source, r.task.Destination, err)
		logger.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("Copy failed")
		r.stats.Add(r.stat(types.StatusFail, err))
		pterm.Error.Println(title)
		return nil
	}

	logger.Info().Dur("duration", time.Since(startTime)).Msg("Copied artifact")
	r.stats.Add(r.stat(types.StatusSuccess, nil))
	pterm.Success.Println(title)
	return nil
}

func (r *Copy) Post(_ context.Context) error {
	return nil
}
