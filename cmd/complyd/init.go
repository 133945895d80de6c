package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/farmdesk/complyd/internal/config"
	"github.com/farmdesk/complyd/internal/storage/sqlite"
)

var initCatalogPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a complyd workspace",
	Long: `Create the workspace config and database, optionally seeding the
requirement catalog from a YAML file.

Examples:
  complyd init
  complyd init --catalog manure.yml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("dir")
		if dir == "" {
			dir = "."
		}

		existing, err := config.Load(dir)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("workspace already initialized in %s", dir)
		}

		cfg := config.Default()
		if actor := viper.GetString("actor"); actor != "" {
			cfg.Actor = actor
		}
		if err := cfg.Save(dir); err != nil {
			return err
		}

		store, err := sqlite.New(cfg.DatabasePath(dir))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if initCatalogPath != "" {
			cat, err := config.LoadCatalog(initCatalogPath)
			if err != nil {
				return err
			}
			for _, req := range cat.ToRequirements() {
				if err := store.CreateRequirement(cmd.Context(), req); err != nil {
					return fmt.Errorf("seeding requirement %s: %w", req.ID, err)
				}
			}
			fmt.Printf("Seeded template %s with %d requirements\n", cat.Template, len(cat.Requirements))
		}

		fmt.Printf("Initialized complyd workspace in %s\n", dir)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initCatalogPath, "catalog", "", "catalog seed file (YAML)")
	rootCmd.AddCommand(initCmd)
}
