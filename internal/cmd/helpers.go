package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/config"
	"github.com/lineament/tracerepo/internal/index"
	"github.com/lineament/tracerepo/internal/logger"
	"github.com/lineament/tracerepo/internal/organize"
)

// commandEnv bundles everything a repository subcommand operates on.
type commandEnv struct {
	cfg          *config.Config
	log          *logger.ConsoleLogger
	root         string
	databasePath string
}

// newCommandEnv resolves the repository root, loads configuration and merges
// persistent flag overrides.
func newCommandEnv(cmd *cobra.Command) (*commandEnv, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, err
	}

	if database, _ := cmd.Flags().GetString("database"); database != "" {
		cfg.MergeWithFlags(&database, nil, nil, nil)
	}
	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.MergeWithFlags(nil, nil, &logLevel, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &commandEnv{
		cfg:          cfg,
		log:          logger.NewConsoleLogger(os.Stderr, cfg.LogLevel),
		root:         root,
		databasePath: filepath.Join(root, cfg.Database),
	}, nil
}

// loadOrganizer reads and validates the index and wraps it in an Organizer
// over the canonical layout.
func (env *commandEnv) loadOrganizer() (*organize.Organizer, error) {
	db, err := index.ReadCSV(env.databasePath)
	if err != nil {
		return nil, err
	}
	return organize.New(db, organize.DefaultLayout(env.root)), nil
}

// persist writes the organizer's database back to disk.
func (env *commandEnv) persist(org *organize.Organizer) error {
	return index.WriteCSV(env.databasePath, org.Database())
}

// filterFlags registers the four string-filter flags shared by query-driven
// subcommands.
func filterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("area", nil, "filter by area name substring")
	cmd.Flags().StringSlice("traces", nil, "filter by traces name substring")
	cmd.Flags().StringSlice("thematic", nil, "filter by thematic group substring")
	cmd.Flags().StringSlice("scale", nil, "filter by scale substring")
}

// criteriaFromFlags collects the shared filter flags into query criteria.
func criteriaFromFlags(cmd *cobra.Command) (organize.Criteria, error) {
	var criteria organize.Criteria
	var err error
	if criteria.Area, err = cmd.Flags().GetStringSlice("area"); err != nil {
		return criteria, err
	}
	if criteria.Traces, err = cmd.Flags().GetStringSlice("traces"); err != nil {
		return criteria, err
	}
	if criteria.Thematic, err = cmd.Flags().GetStringSlice("thematic"); err != nil {
		return criteria, err
	}
	if criteria.Scale, err = cmd.Flags().GetStringSlice("scale"); err != nil {
		return criteria, err
	}
	return criteria, nil
}
