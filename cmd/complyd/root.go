package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/farmdesk/complyd/internal/audit"
	"github.com/farmdesk/complyd/internal/config"
	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/storage/sqlite"
	"github.com/farmdesk/complyd/internal/telemetry"
)

var (
	rootCtx context.Context

	// Populated by openWorkspace for commands that need the store.
	workDir string
	cfg     *config.Config
	store   storage.Storage
	sink    audit.Sink
)

var rootCmd = &cobra.Command{
	Use:   "complyd",
	Short: "Compliance checklist tracker",
	Long: `complyd tracks whether archived documents satisfy a compliance
checklist and keeps a machine-generated to-do list in sync with that
determination. Run 'complyd init' once per workspace, link documents to
requirements, then 'complyd reconcile' to refresh the task list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx = cmd.Context()
		if rootCtx == nil {
			rootCtx = context.Background()
		}
		return telemetry.Init(rootCtx, "complyd", Version)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "workspace directory")
	rootCmd.PersistentFlags().String("tenant", "", "tenant identifier (default from config)")
	rootCmd.PersistentFlags().String("actor", "", "actor recorded on audit events")

	// Flags may also be supplied as COMPLYD_DIR, COMPLYD_TENANT, COMPLYD_ACTOR.
	viper.SetEnvPrefix("COMPLYD")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

// openWorkspace loads the config and opens the store for commands that
// operate on an initialized workspace.
func openWorkspace() error {
	workDir = viper.GetString("dir")
	if workDir == "" {
		workDir = "."
	}

	var err error
	cfg, err = config.Load(workDir)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("no %s in %s (run 'complyd init' first)", config.FileName, workDir)
	}
	if actor := viper.GetString("actor"); actor != "" {
		cfg.Actor = actor
	}

	s, err := sqlite.New(cfg.DatabasePath(workDir))
	if err != nil {
		return err
	}
	store = telemetry.WrapStorage(s)

	if path := cfg.AuditLogPath(workDir); path != "" {
		fs, err := audit.NewFileSink(path)
		if err != nil {
			_ = store.Close()
			return err
		}
		sink = fs
	} else {
		sink = audit.Nop{}
	}
	return nil
}

// closeWorkspace releases the store opened by openWorkspace.
func closeWorkspace() {
	if store != nil {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
		}
		store = nil
	}
}

// tenant returns the effective tenant for this invocation.
func tenant() string {
	if t := viper.GetString("tenant"); t != "" {
		return t
	}
	if cfg != nil && cfg.DefaultTenant != "" {
		return cfg.DefaultTenant
	}
	return "default"
}
