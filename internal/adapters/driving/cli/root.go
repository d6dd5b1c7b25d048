// Package cli provides the cobra command tree for the inkwell binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-dms/inkwell/internal/adapters/driven/blobstore"
	"github.com/inkwell-dms/inkwell/internal/adapters/driven/config/file"
	bleveindex "github.com/inkwell-dms/inkwell/internal/adapters/driven/index/bleve"
	"github.com/inkwell-dms/inkwell/internal/adapters/driven/storage/sqlite"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/core/services"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/parsers"
	"github.com/inkwell-dms/inkwell/internal/parsers/html"
	"github.com/inkwell-dms/inkwell/internal/parsers/markdown"
	"github.com/inkwell-dms/inkwell/internal/parsers/plaintext"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by initServices and consumed by the commands.
var (
	configStore      driven.ConfigStore
	storageRegistry  *blobstore.Registry
	docStore         *sqlite.Store
	searchIndex      driven.SearchIndex
	parserRegistry   *parsers.Registry
	reconcileService driving.ReconcileService
	migrationService driving.MigrationService
	ingestService    driving.IngestService
	documentService  driving.DocumentService
	searchService    driving.SearchService
)

var (
	verboseFlag   bool
	configDirFlag string
	backendFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Document management with storage-to-database reconciliation",
	Long: `Inkwell manages a library of documents: files live in a storage
backend with JSON sidecars beside them, derived content lives in a
SQLite database, and a sync engine reconciles the two so that either
side can be rebuilt from the other.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if skipWiring(cmd) {
			return nil
		}
		return initServices()
	},
}

// Execute runs the root command. Interrupts cancel the command context,
// so a long sync or migration stops between items and reports the
// partial result.
func Execute() error {
	defer closeServices()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.inkwell)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend to operate on (default from config)")
}

// skipWiring reports whether a command runs without the full service
// stack (help, completion, version).
func skipWiring(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "version", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

// initServices wires adapters into services. Called once before any
// command that needs them.
func initServices() error {
	// Already wired, either by an earlier command in the same process
	// or by a test that installed its own adapters.
	if reconcileService != nil {
		return nil
	}

	cfg, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	configStore = cfg

	storageRegistry = blobstore.NewRegistry(configStore)

	storage, err := activeStorage()
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(configStore.GetString("database.data_dir"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	docStore = store

	index, err := bleveindex.New(indexPath())
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}
	searchIndex = index

	parserRegistry = parsers.NewRegistry()
	parserRegistry.Register(plaintext.New())
	parserRegistry.Register(markdown.New())
	parserRegistry.Register(html.New())

	reconcileService = services.NewSyncService(storage, docStore, parserRegistry, searchIndex)
	migrationService = services.NewMigrator(storageRegistry)
	ingestService = services.NewIngestor(storage, docStore, parserRegistry, searchIndex)
	documentService = services.NewDocumentManager(docStore, searchIndex)
	searchService = services.NewSearcher(docStore, searchIndex)

	return nil
}

// activeStorage resolves the backend selected by --backend or config.
func activeStorage() (driven.Storage, error) {
	if backendFlag != "" {
		return storageRegistry.Storage(backendFlag)
	}
	return storageRegistry.Default()
}

func closeServices() {
	if searchIndex != nil {
		_ = searchIndex.Close()
	}
	if docStore != nil {
		_ = docStore.Close()
	}
}

// indexPath returns the search index location, beside the database.
func indexPath() string {
	if dir := configStore.GetString("database.data_dir"); dir != "" {
		return filepath.Join(dir, "index.bleve")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inkwell", "data", "index.bleve")
	}
	return filepath.Join(home, ".inkwell", "data", "index.bleve")
}
