package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"trustdebt/adapters/postgres"
	"trustdebt/domain/report"
	"trustdebt/internal"
	"trustdebt/internal/migration"
)

// migrate creates the schema and optionally backfills run history from
// report JSON files written by `trustdebt-cli assess --output`.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [report_dir]")
	}
	databaseURL := os.Args[1]
	logger := internal.NewDefaultLogger()
	ctx := context.Background()

	db, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(logger)
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema version %s is in place", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	reportDir := os.Args[2]

	files, err := findReportFiles(reportDir)
	if err != nil {
		log.Fatalf("Failed to find report files: %v", err)
	}
	log.Printf("Found %d report files to import", len(files))

	repo := postgres.NewHistoryRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		rep, err := loadReport(file)
		if err != nil {
			log.Printf("Skipping %s: %v", file, err)
			skipped++
			continue
		}
		if err := repo.Save(ctx, rep); err != nil {
			log.Printf("Failed to import %s: %v", file, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findReportFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func loadReport(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	if rep.RunID == "" || rep.Result == nil {
		return nil, os.ErrInvalid
	}
	return &rep, nil
}
