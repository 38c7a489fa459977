package cli

import (
	"context"
	"fmt"
	"log"

	"character-quiz-bot/internal/config"
	"character-quiz-bot/internal/domain"
	"character-quiz-bot/internal/infra/file"
	"character-quiz-bot/internal/infra/postgres"
	"character-quiz-bot/internal/infra/sqlite"
	"github.com/spf13/cobra"
)

// NewSeedCmd imports the JSON content files into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Import questions and outcomes from JSON files into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config) error {
	raw, err := file.NewContentLoader(cfg.Content.QuestionsPath, cfg.Content.OutcomesPath).LoadRaw(ctx)
	if err != nil {
		return err
	}

	switch cfg.Content.Source {
	case config.SourcePostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		db, err := openBunDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		err = postgres.NewContentWriter(db).SaveContent(ctx, raw)
		return logSeed(err, "postgres", raw)
	case config.SourceSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		return logSeed(store.SaveContent(ctx, raw), cfg.SQLite.Path, raw)
	default:
		return fmt.Errorf("seed needs a database content source, got %q", cfg.Content.Source)
	}
}

func logSeed(err error, target string, raw domain.RawContent) error {
	if err != nil {
		return err
	}
	log.Printf("seeded content into %s (%d + %d bytes)", target, len(raw.Questions), len(raw.Outcomes))
	return nil
}
