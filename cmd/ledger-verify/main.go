// Command ledger-verify replays the audit chain stored in DATABASE_URL from
// genesis and exits with status 1 if it is broken.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/database"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/repository"
	"github.com/trustportal/trust-api/pkg/logger"
)

func main() {
	algorithm := flag.String("algorithm", "", "digest to verify with (defaults to AUDIT_HASH_ALGORITHM)")
	batch := flag.Int("batch", 0, "entries per scan batch (defaults to AUDIT_SCAN_BATCH_SIZE)")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Audit.Store != config.StorePostgres {
		log.Fatal("ledger-verify needs AUDIT_STORE=postgres; the memory store lives only inside the API process")
	}

	// Initialize logger
	logger.SetupWriter(os.Stderr, cfg.Environment, cfg.LogLevel)

	name := cfg.Audit.HashAlgorithm
	if *algorithm != "" {
		name = *algorithm
	}
	digester, err := ledger.NewDigester(name)
	if err != nil {
		log.Fatalf("Invalid algorithm: %v", err)
	}

	dbCfg := cfg.DB
	dbCfg.MaxOpenConns = 2
	db, err := database.Connect(dbCfg, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	batchSize := cfg.Audit.ScanBatchSize
	if *batch > 0 {
		batchSize = *batch
	}
	chain := ledger.New(repository.NewAuditRepository(db), ledger.Config{
		Digester:      digester,
		ScanBatchSize: batchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := chain.Verify(ctx)
	if err != nil {
		log.Fatalf("Verification aborted: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if !report.Verified {
		logger.Error("Audit chain is broken",
			"position", report.Break.Position,
			"seq", report.Break.Seq,
			"entry_id", report.Break.EntryID,
			"reason", report.Break.Reason,
		)
		os.Exit(1)
	}
	logger.Info("Audit chain verified", "checked", report.Checked, "algorithm", report.Algorithm)
}
