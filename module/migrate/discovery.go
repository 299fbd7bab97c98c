package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/harness/harbor-migrator/module/migrate/adapter"
	"github.com/harness/harbor-migrator/module/migrate/report"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/module/migrate/util"
	"github.com/harness/harbor-migrator/util/common/progress"
)

// DiscoveryService enumerates a Harbor project, collects the newest artifacts of every
// repository and writes the NDJSON and CSV reports.
type DiscoveryService struct {
	config *types.Config
	source adapter.Discoverer
	writer *report.Writer
}

// NewDiscoveryService creates a discovery service writing reports to fs
func NewDiscoveryService(ctx context.Context, cfg *types.Config, fs afero.Fs) (*DiscoveryService, error) {
	source, err := adapter.GetDiscoverer(ctx, cfg.Harbor)
	if err != nil {
		return nil, fmt.Errorf("failed to get source adapter: %w", err)
	}
	return &DiscoveryService{
		config: cfg,
		source: source,
		writer: report.NewWriter(fs, cfg.Discovery.OutDir),
	}, nil
}

// Collect returns the records of every matching repository, in enumeration order and,
// within a repository, in the order the registry returned them. A failing repository is
// logged and contributes no records.
func (d *DiscoveryService) Collect(ctx context.Context) ([]types.ArtifactRecord, error) {
	cfg := d.config.Discovery
	logger := log.With().Str("project", cfg.Project).Logger()

	repos, err := d.source.ListRepositories(ctx, cfg.Project, cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", cfg.Project, err)
	}
	total := len(repos)
	repos = util.FilterByPatterns(repos, cfg.Include, cfg.Exclude)
	logger.Info().Int("repositories", total).Int("selected", len(repos)).Msg("Enumerated repositories")

	if len(repos) == 0 {
		pterm.Warning.Printfln("No repositories found in project %s", cfg.Project)
		return []types.ArtifactRecord{}, nil
	}

	bar := progress.NewAuto("Collecting artifacts", len(repos))
	defer bar.Stop()

	results := make([][]types.ArtifactRecord, len(repos))
	var g errgroup.Group
	g.SetLimit(max(cfg.Concurrency, 1))

	for i, repo := range repos {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			defer bar.Increment(repo)
			repoLogger := logger.With().Str("repository", repo).Logger()
			start := time.Now()

			records, err := d.source.ListArtifacts(ctx, cfg.Project, repo, cfg.Artifacts)
			if err != nil {
				repoLogger.Warn().Err(err).Msg("Failed to collect artifacts, continuing")
				return nil
			}
			if len(records) == 0 {
				repoLogger.Info().Msg("No artifacts found")
				return nil
			}
			repoLogger.Debug().Int("artifacts", len(records)).Dur("duration", time.Since(start)).
				Msg("Collected artifacts")
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []types.ArtifactRecord
	for _, records := range results {
		out = append(out, records...)
	}
	if out == nil {
		out = []types.ArtifactRecord{}
	}
	return out, nil
}

// Run collects and persists the project report.
func (d *DiscoveryService) Run(ctx context.Context) (report.Result, error) {
	project := d.config.Discovery.Project
	log.Info().Str("project", project).Str("out", d.config.Discovery.OutDir).Msg("Starting discovery")

	records, err := d.Collect(ctx)
	if err != nil {
		return report.Result{}, err
	}

	res, err := d.writer.Write(project, records)
	if err != nil {
		return res, fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Int("records", res.Records).Msg("Discovery completed")
	pterm.Success.Printfln("Wrote %d artifacts", res.Records)
	pterm.Info.Printfln("NDJSON: %s", res.NDJSONPath)
	pterm.Info.Printfln("CSV:    %s", res.CSVPath)
	return res, nil
}
