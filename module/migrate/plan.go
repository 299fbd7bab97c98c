package migrate

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/harness/harbor-migrator/module/migrate/report"
	"github.com/harness/harbor-migrator/module/migrate/types"
)

// PathFunc returns the image path, without tag or digest, of a project repository.
type PathFunc func(project, repository string) string

// Plan is the list of copy tasks derived from a report, plus the rows that could not be
// turned into tasks.
type Plan struct {
	Tasks    []types.MigrationTask
	Rejected []types.TaskStat
}

// BuildPlan expands every report row into one task per tag: source <src>@<digest>,
// destination <dst>:<tag>.
//
// A row without tags cannot be addressed at the destination. With FailureModeStop the
// plan ends at that row and the returned error wraps types.ErrMissingTags; tasks of the
// earlier rows are still returned. With FailureModeContinue the row is rejected and
// planning goes on.
func BuildPlan(rows []report.Row, src, dst PathFunc, mode types.FailureMode) (*Plan, error) {
	plan := &Plan{Tasks: make([]types.MigrationTask, 0, len(rows))}

	for _, row := range rows {
		rec := row.Record
		source := src(rec.Project, rec.Repository) + "@" + rec.Digest

		err := rec.Validate()
		if err == nil && len(rec.Tags) == 0 {
			err = fmt.Errorf("%w: %s", types.ErrMissingTags, rec.Reference())
		}
		if err != nil {
			err = fmt.Errorf("line %d: %w", row.Line, err)
			plan.Rejected = append(plan.Rejected, types.TaskStat{
				Line:   row.Line,
				Source: source,
				Status: types.StatusFail,
				Error:  err.Error(),
			})
			if mode != types.FailureModeContinue {
				return plan, err
			}
			log.Warn().Err(err).Msg("Skipping report row")
			continue
		}

		for _, tag := range rec.Tags {
			plan.Tasks = append(plan.Tasks, types.MigrationTask{
				Line:        row.Line,
				Project:     rec.Project,
				Repository:  rec.Repository,
				Digest:      rec.Digest,
				Tag:         tag,
				Size:        rec.Size,
				Source:      source,
				Destination: dst(rec.Project, rec.Repository) + ":" + tag,
			})
		}
	}
	return plan, nil
}
