package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/config"
)

var (
	flagDB         string
	flagFormat     string
	flagPHPVersion string
	flagConfig     string
	flagVerbose    bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

var log = logrus.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "phpreflect",
	Short:         "Reflection over PHP sources with doc-comment type resolution",
	Long:          "phpreflect indexes PHP sources with tree-sitter into a SQLite registry and answers reflection queries, resolving doc-comment types against each file's use statements.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(flagVerbose)
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: db from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagPHPVersion, "php-version", "", "PHP version to emulate (default: php_version from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" in repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(usesCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

func setupLogger(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
}

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index PHP sources into the registry",
	Long:  "Parses .php files with tree-sitter and records classes, members, use statements and doc comments in the SQLite registry. Without a path the config's paths are indexed.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}
	dbPath := resolveDBPath(repoRoot, cfg)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		log.WithField("db", dbPath).Info("cleared database")
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	engine, err := phpreflect.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := cmdContext(cmd)
	for _, root := range indexRoots(args, targetDir, repoRoot, cfg) {
		if err := engine.IndexDirectory(ctx, root); err != nil {
			return fmt.Errorf("indexing %s: %w", root, err)
		}
	}

	files, err := engine.Store().Files()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path":     targetDir,
		"db":       dbPath,
		"files":    len(files),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("indexed")
	return nil
}

// indexRoots returns the directories to index: the explicit argument, or
// the config's paths relative to the repo root.
func indexRoots(args []string, targetDir, repoRoot string, cfg *config.Config) []string {
	if len(args) > 0 {
		return []string{targetDir}
	}
	roots := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(repoRoot, p)
		}
		roots = append(roots, filepath.Clean(p))
	}
	return roots
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory or a
// config file. Returns startDir if neither is found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// loadConfig reads --config, or the config file in repoRoot when present.
func loadConfig(repoRoot string) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.Find(repoRoot)
}

// resolveDBPath returns the database path from --db, falling back to the
// config. Relative paths are taken from the repo root.
func resolveDBPath(repoRoot string, cfg *config.Config) string {
	db := cfg.DB
	if flagDB != "" {
		db = flagDB
	}
	if db == phpreflect.MemoryPath || filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(repoRoot, db)
}

// resolveVersion returns --php-version, falling back to the config.
func resolveVersion(cfg *config.Config) (phpreflect.Version, error) {
	s := cfg.PHPVersion
	if strings.TrimSpace(flagPHPVersion) != "" {
		s = flagPHPVersion
	}
	v, err := phpreflect.ParseVersion(s)
	if err != nil {
		return phpreflect.Version{}, fmt.Errorf("php version: %w", err)
	}
	return v, nil
}

func engineOptions(cfg *config.Config) ([]phpreflect.Option, error) {
	version, err := resolveVersion(cfg)
	if err != nil {
		return nil, err
	}
	opts := []phpreflect.Option{
		phpreflect.WithVersion(version),
		phpreflect.WithLogger(log),
		phpreflect.WithExcludes(cfg.Exclude.Dirs, cfg.Exclude.Files),
	}
	if cfg.Parallel != nil {
		opts = append(opts, phpreflect.WithParallel(*cfg.Parallel))
	}
	return opts, nil
}

// openEngine opens the existing registry for the current directory.
func openEngine() (*phpreflect.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(repoRoot, cfg)
	if dbPath != phpreflect.MemoryPath {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s (run 'phpreflect index' first)", dbPath)
		}
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}
	return phpreflect.New(dbPath, opts...)
}
