package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/repair-commons/repaircafe/internal/config"
	"github.com/repair-commons/repaircafe/internal/database"
	"github.com/repair-commons/repaircafe/internal/notify"
	"github.com/repair-commons/repaircafe/internal/repository"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminder emails for events one and seven days away",
	Long: `remind emails every active registrant of published events that are
exactly one or seven days out. Meant to run once a day from cron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemind(cmd.Context())
	},
}

func runRemind(ctx context.Context) error {
	cfg := config.Load()

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	runner := notify.NewReminderRunner(
		repository.NewEventRepository(pool),
		repository.NewRegistrationRepository(pool),
		repository.NewPreferenceRepository(pool),
		notify.NewMailer(cfg),
	)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("reminders done", "events", res.Events, "sent", res.Sent, "skipped", res.Skipped, "failed", res.Failed)
	return nil
}
