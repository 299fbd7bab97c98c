package migrate

import (
	"context"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/harness/harbor-migrator/config"
	"github.com/harness/harbor-migrator/module/migrate/adapter"
	"github.com/harness/harbor-migrator/module/migrate/copier"
	"github.com/harness/harbor-migrator/module/migrate/engine"
	"github.com/harness/harbor-migrator/module/migrate/lib"
	"github.com/harness/harbor-migrator/module/migrate/migratable"
	"github.com/harness/harbor-migrator/module/migrate/report"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/util/common/printer"

	_ "github.com/harness/harbor-migrator/module/migrate/adapter/ecr"
	_ "github.com/harness/harbor-migrator/module/migrate/adapter/harbor"
)

var summaryColumns = printer.ColumnMapping{
	{"line", "Line"},
	{"source", "Source"},
	{"destination", "Destination"},
	{"size", "Size"},
	{"status", "Status"},
	{"error", "Error"},
}

// MigrationService handles the migration process
type MigrationService struct {
	config      *types.Config
	fs          afero.Fs
	source      adapter.Adapter
	destination adapter.Adapter
	copier      copier.Copier
}

type MigrationOption func(*MigrationService)

// WithCopier replaces the copier built from the registry keychains.
func WithCopier(c copier.Copier) MigrationOption {
	return func(m *MigrationService) {
		m.copier = c
	}
}

// NewMigrationService creates a new migration service
func NewMigrationService(ctx context.Context, cfg *types.Config, fs afero.Fs, opts ...MigrationOption) (
	*MigrationService,
	error,
) {
	sourceAdapter, err := adapter.GetAdapter(ctx, cfg.Harbor)
	if err != nil {
		return nil, fmt.Errorf("failed to get source adapter: %w", err)
	}
	destAdapter, err := adapter.GetAdapter(ctx, cfg.ECR)
	if err != nil {
		return nil, fmt.Errorf("failed to get destination adapter: %w", err)
	}

	m := &MigrationService{
		config:      cfg,
		fs:          fs,
		source:      sourceAdapter,
		destination: destAdapter,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run executes the migration process. Tasks run even when planning stopped early; the
// returned error reports the planning failure or the number of failed tasks.
func (m *MigrationService) Run(ctx context.Context) (*types.TransferStats, error) {
	cfg := m.config.Migration
	logger := log.With().
		Str("source_type", string(m.config.Harbor.Type)).
		Str("destination_type", string(m.config.ECR.Type)).
		Str("report", cfg.From).
		Logger()

	logger.Info().Msg("Starting migration process")

	rows, err := report.ReadCSV(m.fs, cfg.From)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	plan, planErr := BuildPlan(rows, m.source.GetOCIImagePath, m.destination.GetOCIImagePath, cfg.FailureMode)
	if planErr != nil {
		logger.Error().Err(planErr).Int("planned_tasks", len(plan.Tasks)).Msg("Planning stopped")
	}

	stats := &types.TransferStats{}
	for _, r := range plan.Rejected {
		stats.Add(r)
	}

	if len(plan.Tasks) > 0 {
		c, err := m.getCopier(ctx, cfg.DryRun)
		if err != nil {
			return stats, err
		}

		jobs := make([]engine.Job, 0, len(plan.Tasks))
		for _, task := range plan.Tasks {
			jobs = append(jobs, migratable.NewCopyJob(task, c, stats, cfg.DryRun))
		}

		eng := engine.NewEngine(cfg.Concurrency, jobs)
		if err := eng.Execute(ctx); err != nil {
			logger.Error().Err(err).Msg("Engine execution failed")
			return stats, fmt.Errorf("engine execution failed: %w", err)
		}
	}

	m.printSummary(stats)

	if planErr != nil {
		return stats, planErr
	}
	if failed := stats.Count(types.StatusFail); failed > 0 {
		return stats, fmt.Errorf("%d of %d migration tasks failed", failed, len(stats.Stats()))
	}
	logger.Info().Msg("Migration process completed")
	return stats, nil
}

// getCopier logs in to both registries unless a copier was injected. A dry run never
// copies, so it needs no credentials.
func (m *MigrationService) getCopier(ctx context.Context, dryRun bool) (copier.Copier, error) {
	if m.copier != nil || dryRun {
		return m.copier, nil
	}

	keychain, err := lib.CreateCraneKeychain(ctx, m.source, m.destination)
	if err != nil {
		return nil, fmt.Errorf("failed to create keychain: %w", err)
	}
	c, err := copier.New(m.config.Migration.Copier, copier.Options{
		Keychain: keychain,
		Insecure: m.config.Harbor.Insecure,
	})
	if err != nil {
		return nil, err
	}
	m.copier = c
	return c, nil
}

func (m *MigrationService) printSummary(stats *types.TransferStats) {
	all := stats.Stats()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Destination < all[j].Destination
	})

	if err := printer.Print(all, config.Global.Format, summaryColumns); err != nil {
		log.Error().Err(err).Msg("Failed to print summary")
	}
	pterm.Info.Printfln("Migration finished: %d succeeded, %d skipped, %d failed",
		stats.Count(types.StatusSuccess), stats.Count(types.StatusSkip), stats.Count(types.StatusFail))
}
