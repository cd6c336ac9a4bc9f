package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/app"
	"taskpad-backend/internal/auth"
	"taskpad-backend/internal/config"
	"taskpad-backend/internal/db"
	"taskpad-backend/internal/ingest"
	"taskpad-backend/internal/logger"
)

// Opener builds the application for one command invocation.
type Opener func(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.App, error)

func RootCmd() *cobra.Command {
	return newRoot(config.Load, app.Open)
}

func newRoot(load func() *config.Config, open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskpad",
		Short:         "Turn free-form text into tasks and notes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		processCmd(load, open),
		migrateCmd(load),
		tokenCmd(load),
	)
	return root
}

func processCmd(load func() *config.Config, open Opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process <text>",
		Short: "Classify, structure and store one piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := app.NewLogger(cfg, cmd.ErrOrStderr())

			a, err := open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logger.ContextWithLogger(cmd.Context(), log)
			res, err := a.Ingest.Handle(ctx, analytics.Envelope{Platform: "cli"}, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintln(out, ingest.Message(res))
			for _, id := range res.TaskIDs {
				fmt.Fprintf(out, "task %s\n", id)
			}
			for _, id := range res.NoteIDs {
				fmt.Fprintf(out, "note %s\n", id)
			}
			for _, f := range res.Failures {
				fmt.Fprintf(out, "failed %s\n", f.Error())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func migrateCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			if cfg.Storage != config.StoragePostgres {
				return errors.New("migrate needs STORAGE=postgres")
			}
			log := app.NewLogger(cfg, cmd.ErrOrStderr())

			database, err := db.Connect(cmd.Context(), cfg.ConnString())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer database.Close()

			version, err := db.Migrate(database)
			if err != nil {
				return err
			}
			log.Info("Migrations applied", "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

func tokenCmd(load func() *config.Config) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			token, err := auth.GenerateToken([]byte(cfg.JWTSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
