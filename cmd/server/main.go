package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/email/noop"
	"doklado/internal/email/ses"
	"doklado/internal/enrich"
	"doklado/internal/extract"
	"doklado/internal/extract/claude"
	"doklado/internal/extract/gemini"
	"doklado/internal/extract/openai"
	"doklado/internal/handler"
	"doklado/internal/ocr"
	"doklado/internal/ocr/azureread"
	"doklado/internal/ocr/gvision"
	"doklado/internal/ocr/tesseract"
	"doklado/internal/parse"
	"doklado/internal/pipeline"
	"doklado/internal/port"
	"doklado/internal/repository/postgres"
	"doklado/internal/router"
	"doklado/internal/service"
	s3storage "doklado/internal/storage/s3"
	"doklado/internal/validate"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	jobRepo := postgres.NewJobRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize email sender
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Assemble the recognition backends enabled in config
	var recognizers []port.Recognizer
	reliability := map[string]float64{}
	if cfg.OCR.Tesseract.Enabled {
		recognizers = append(recognizers, tesseract.NewAdapter("ces+eng"))
		reliability["tesseract"] = cfg.OCR.Tesseract.Reliability
	}
	if cfg.OCR.GVision.Enabled {
		recognizers = append(recognizers, gvision.NewAdapter(&cfg.OCR.GVision))
		reliability["gvision"] = cfg.OCR.GVision.Reliability
	}
	if cfg.OCR.AzureRead.Enabled {
		recognizers = append(recognizers, azureread.NewAdapter(&cfg.OCR.AzureRead))
		reliability["azure_read"] = cfg.OCR.AzureRead.Reliability
	}
	if len(recognizers) == 0 {
		return fmt.Errorf("no OCR providers enabled")
	}
	fusion := ocr.NewFusion(recognizers, reliability, cfg.OCR.Timeout)

	// Register extraction providers and build one completer per tier
	extract.RegisterProvider("claude", func(tc *config.TierConfig) (port.Completer, error) {
		return claude.NewCompleter(tc), nil
	})
	extract.RegisterProvider("openai", func(tc *config.TierConfig) (port.Completer, error) {
		return openai.NewCompleter(tc), nil
	})
	extract.RegisterProvider("gemini", func(tc *config.TierConfig) (port.Completer, error) {
		return gemini.NewCompleter(tc), nil
	})

	table := extract.NewTierTable(&cfg.Extract)
	completers := map[domain.Tier]port.Completer{}
	for _, spec := range table.Ordered() {
		completer, err := extract.NewCompleter(&spec.Config)
		if err != nil {
			return fmt.Errorf("failed to initialize %s tier: %w", spec.ID, err)
		}
		completers[spec.ID] = completer
	}
	tierRouter := extract.NewRouter(table)
	chainClient := extract.NewChainClient(table, completers)

	parser, err := parse.NewParser()
	if err != nil {
		return fmt.Errorf("failed to compile record schema: %w", err)
	}
	validator := validate.NewEngine(cfg.Validate)

	enricher, err := enrich.NewEnricher(enrich.NewARESClient(&cfg.Enrich), cfg.Enrich.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to initialize enricher: %w", err)
	}

	pipe := pipeline.New(fusion, tierRouter, chainClient, parser, validator, enricher)

	// Initialize services and handlers
	docSvc := service.NewDocumentService(jobRepo, s3Client, pipe, emailSender, &cfg.S3)
	documentH := handler.NewDocumentHandler(docSvc)
	healthH := handler.NewHealthHandler(db)

	// Start the queue worker; it drains in-flight jobs on SIGINT/SIGTERM
	workerCtx, stopWorker := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopWorker()

	worker := service.NewProcessQueueWorker(jobRepo, docSvc, service.ProcessQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	// Setup router
	r := router.Setup(cfg, documentH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	stopWorker()
	<-workerDone
	return nil
}
