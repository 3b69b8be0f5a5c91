package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"studycards/internal/config"
	"studycards/internal/database"
	"studycards/internal/logger"
	"studycards/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Sync()

	db, err := database.InitializeWithConfig(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(); err != nil {
		l.Fatal("failed to run migrations", zap.Error(err))
	}

	backupService := service.NewBackupService(db, cfg.AdminUser, l)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(backupService, l, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(backupService, l, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(backupService *service.BackupService, l *zap.Logger, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.Fatal("failed to create output directory", zap.Error(err))
		}
	}

	if err := backupService.Export(outputPath); err != nil {
		l.Fatal("export failed", zap.Error(err))
	}

	if info, err := os.Stat(outputPath); err == nil {
		l.Info("export complete", zap.String("path", outputPath), zap.Int64("bytes", info.Size()))
	}
}

func handleImport(backupService *service.BackupService, l *zap.Logger, inputPath string, clearData, skipConfirm bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		l.Fatal("input file does not exist", zap.String("path", inputPath))
	}

	if clearData {
		if !skipConfirm {
			fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
			var confirmation string
			fmt.Scanln(&confirmation)
			if confirmation != "yes" {
				l.Info("import cancelled")
				return
			}
		}

		if err := backupService.ClearAll(); err != nil {
			l.Fatal("failed to clear database", zap.Error(err))
		}
	}

	stats, err := backupService.Import(inputPath)
	if err != nil {
		l.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Import complete: %d users created, %d kept, %d skipped, %d chapters written\n",
		stats.UsersCreated, stats.UsersKept, stats.UsersSkipped, stats.Chapters)
}

func printUsage() {
	fmt.Println("studycards backup tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export users and score history to JSON")
	fmt.Println("  backup import [options]    Import users and score history from JSON")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation when clearing")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, pgx, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./studycards.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
