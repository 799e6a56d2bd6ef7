package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mgrier/stride/internal/config"
	"github.com/mgrier/stride/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Stride database",
		Long:  "Creates the database for the configured driver, migrates all tables, and seeds the builtin categories.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config from %s (driver: %s)\n", configPath, cfg.DB.Driver)

	gormDB, err := openDB(cmd, cfg)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	models := db.AllModels()
	fmt.Fprintf(out, "Migrated %d tables\n", len(models))

	if err := db.SeedCategories(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d categories:", len(db.BuiltinCategories))
	for _, c := range db.BuiltinCategories {
		fmt.Fprintf(out, " %s", c.ID)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "\nStride database initialized successfully.")
	return nil
}

// openDB connects per the configured driver, creating the MySQL database
// first when needed. SQLite creates its file on connect.
func openDB(cmd *cobra.Command, cfg *config.Config) (*gorm.DB, error) {
	out := cmd.OutOrStdout()

	if cfg.DB.Driver == "sqlite" {
		gormDB, err := db.ConnectSQLite(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database %s: %w", cfg.DB.Path, err)
		}
		fmt.Fprintf(out, "Opened SQLite database at %s\n", cfg.DB.Path)
		return gormDB, nil
	}

	adminDB, err := db.ConnectAdmin(cfg.DB.Host, cfg.DB.Port)
	if err != nil {
		return nil, fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.DB.Host, cfg.DB.Port, err)
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.DB.Host, cfg.DB.Port)

	if err := db.CreateDatabase(adminDB, cfg.DB.Database); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.DB.Database)

	gormDB, err := db.Connect(cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}
	return gormDB, nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Stride database",
		Long: `Drops the Stride database and re-creates it from config.

For SQLite the database file is removed; for MySQL the database is dropped
via the admin connection. Either way the database is then re-created,
migrated, and seeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes || force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt (alias for --yes)")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := cfg.DB.Database
	if cfg.DB.Driver == "sqlite" {
		name = cfg.DB.Path
	}

	if !skipConfirm {
		if !confirmReset(cmd, name) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if cfg.DB.Driver == "sqlite" {
		if err := os.Remove(cfg.DB.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", cfg.DB.Path, err)
		}
		fmt.Fprintf(out, "Removed database file %s\n", cfg.DB.Path)
	} else {
		adminDB, err := db.ConnectAdmin(cfg.DB.Host, cfg.DB.Port)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.DB.Host, cfg.DB.Port, err)
		}
		if err := db.DropDatabase(adminDB, cfg.DB.Database); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped database %s\n", cfg.DB.Database)
	}

	gormDB, err := openDB(cmd, cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	if err := db.SeedCategories(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d categories\n", len(db.BuiltinCategories))

	fmt.Fprintln(out, "\nStride database reset and re-initialized successfully.")
	return nil
}

func confirmReset(cmd *cobra.Command, name string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %q.\n", name)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
