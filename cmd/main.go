package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "zone_scheduler/docs"
	"zone_scheduler/internal/config"
	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
)

// @title           Zone Scheduler API
// @version         1.0
// @description     Weekly schedules and holds that resolve the target temperature of climate zones.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "zone-scheduler",
		Short:         "Serve zone schedules, holds and setpoints over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(configFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, log); err != nil {
				log.Errorw("server stopped with error", "err", err)
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (default configs/config.yml)")

	root.AddCommand(newInspectCmd(&configFile))
	return root
}

func newInspectCmd(configFile *string) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stored schedules, hold and setpoints as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			snaps, err := inspect(cmd.Context(), cfg, log, zone)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snaps)
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "", "only print this zone")
	return cmd
}

// setup loads configuration and initializes the process logger.
func setup(configFile string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(viper.New(), configFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("error reading config: %w", err)
	}
	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Format), nil
}

func inspect(ctx context.Context, cfg config.Config, log *logger.Logger, zone string) ([]models.ZoneSnapshot, error) {
	a, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return nil, err
	}
	defer a.close()

	zones := []string{zone}
	if zone == "" {
		zones = a.services.Setpoints.Zones()
	}
	snaps := make([]models.ZoneSnapshot, 0, len(zones))
	for _, z := range zones {
		snaps = append(snaps, a.services.Setpoints.Snapshot(z))
	}
	return snaps, nil
}
