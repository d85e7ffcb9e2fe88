package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SmartGrade/internal/config"
	"github.com/TobiSchelling/SmartGrade/internal/database"
	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
	"github.com/TobiSchelling/SmartGrade/internal/llm"
	"github.com/TobiSchelling/SmartGrade/internal/logging"
)

var version = "dev"

var (
	verbose      bool
	configPath   string
	cfg          *config.Config
	flushLogging = func() {}
)

func main() {
	err := rootCmd.Execute()
	flushLogging()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "smartgrade",
	Short:   "Homework grading assistant",
	Long:    "SmartGrade transcribes photographed homework, grades it against a subject knowledge base and reports the results.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return setupLogging(config.Default())
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}
		zap.S().Debugw("config loaded", "path", path)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(kbCmd)
}

func setupLogging(c *config.Config) error {
	flush, err := logging.Init(logging.Options{
		Level:   c.Logging.Level,
		File:    c.Logging.File,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	flushLogging = flush
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("smartgrade", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/smartgrade/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set the API key variables it names (ZHIPU_API_KEY, DEEPSEEK_API_KEY) in your environment or a .env file.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service configuration and knowledge base status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed).SprintFunc()
		state := func(configured bool) string {
			if configured {
				return ok("configured")
			}
			return bad("missing API key")
		}

		ocr, err := newOCR()
		if err != nil {
			return err
		}
		grader := newGrader()

		fmt.Println("Services:")
		fmt.Printf("  OCR (%s, %s): %s\n", cfg.OCR.Provider, cfg.OCR.Model, state(ocr.IsConfigured()))
		fmt.Printf("  Grading (%s): %s\n", cfg.Grading.Model, state(grader.IsConfigured()))

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("\nDatabase: %s\n", db.Path())
		entries, err := db.Entries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("  %s: %d bytes, updated %s\n", e.Key, e.Size, e.UpdatedAt)
		}
		store := knowledge.NewStore(db)
		if err := store.Initialize(); err != nil {
			fmt.Printf("  Knowledge base: %s\n", bad(err.Error()))
			return nil
		}
		fmt.Println("Knowledge base:")
		for _, s := range homework.Subjects {
			sum, err := store.Summary(s)
			if err != nil {
				return err
			}
			fmt.Printf("  %s: %d entries\n", sum.Name, sum.ItemCount)
		}
		return nil
	},
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "smartgrade.db")
	return database.Open(dbPath)
}

// openKnowledge opens the database and seeds the knowledge base on first use.
func openKnowledge() (*database.DB, *knowledge.Store, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	store := knowledge.NewStore(db)
	if err := store.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func newOCR() (llm.OCR, error) {
	o := cfg.OCR
	return llm.NewOCR(o.Provider, o.BaseURL, o.Model, o.APIKeyEnv, o.Temperature, o.Timeout())
}

func newGrader() *llm.ChatGrader {
	g := cfg.Grading
	return llm.NewChatGrader(g.BaseURL, g.Model, g.APIKeyEnv, g.Temperature, g.Timeout())
}
