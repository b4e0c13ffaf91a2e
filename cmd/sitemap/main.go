package main

import (
	"fmt"
	"os"

	"github.com/romangod6/kb-sitemap/config"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/storage"
	"github.com/romangod6/kb-sitemap/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kb-sitemap",
	Short: "Build, store and serve XML sitemaps",
	Long: `kb-sitemap keeps named sitemaps in a database, writes them to disk as a
sitemap index with chunk files, and serves them over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(importCmd)
}

type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	manager *sitemap.Manager
	store   storage.Store
}

// setup loads configuration, opens and initializes the store, and builds a
// manager filled from it.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:  level,
		Format: cfg.Logging.Format,
	})

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	manager := sitemap.NewManager(cfg.Settings(),
		sitemap.WithLogger(logger),
		sitemap.WithFormat(models.ParseFormat(cfg.Sitemap.Format)),
		sitemap.WithRenderer(models.FormatTXT, sitemap.TextRenderer{}),
	)

	n, err := storage.LoadInto(cmd.Context(), store, manager)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info().Int("urls", n).Int("sitemaps", manager.Count()).Msg("Loaded sitemaps from storage")

	return &app{cfg: cfg, logger: logger, manager: manager, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the sitemap index and chunk files to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = a.cfg.Sitemap.OutputPath
		}
		backup := a.cfg.Sitemap.Backup
		if cmd.Flags().Changed("no-backup") {
			backup = false
		}
		name, _ := cmd.Flags().GetString("name")

		run, err := utils.NewRunLogger(a.cfg.Logging.Dir, "generate", a.cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer run.Close()

		if err := a.manager.Save(output, name, backup); err != nil {
			run.Error().Err(err).Str("path", output).Msg("Failed to write sitemap")
			return err
		}

		for _, s := range a.manager.Summaries() {
			run.WithSitemap(s.Name).Info().
				Int("urls", s.URLCount).
				Int("chunks", s.Chunks).
				Msg("Sitemap written")
		}
		run.Info().Str("path", output).Msg("Generation completed")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <name> <file>",
	Short: "Import an existing sitemap XML file into storage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, path := args[0], args[1]
		result, err := a.manager.Import(name, path)
		if err != nil {
			return err
		}

		s, _ := a.manager.Get(name)
		if err := storage.SaveSitemap(cmd.Context(), a.store, name, s); err != nil {
			return err
		}

		log := a.logger.WithSitemap(name)
		for _, skipped := range result.Skipped {
			log.Warn().Str("entry", skipped).Msg("Skipped invalid sitemap field")
		}
		log.Info().Int("urls", result.URLs).Msg("Import completed")
		return nil
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "Output path (default from config)")
	generateCmd.Flags().StringP("name", "n", "", "Write one sitemap instead of the index")
	generateCmd.Flags().Bool("no-backup", false, "Do not keep the previous file as *_old")
}
