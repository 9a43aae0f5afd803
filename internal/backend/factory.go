package backend

import (
	"context"
	"fmt"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/amqp"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets"
	gsheet "github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets/google"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets/memory"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the repository selected by config.Type and, when an
// AMQP URL is set, a publisher for budget.saved events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.BudgetRepository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		repo, err = storage.NewPostgresRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
	case MemoryBackend:
		repo = storage.NewMemoryStore()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	publisher := f.connectPublisher(config)

	return &BackendResult{
		Repository: repo,
		Publisher:  publisher,
		Cleanup: func() error {
			if publisher != nil {
				if err := publisher.Close(); err != nil {
					f.logger.Warn("Failed to close AMQP client", log.FieldError, err.Error())
				}
			}
			return repo.Close()
		},
	}, nil
}

// connectPublisher returns nil when AMQP is disabled or the broker cannot be
// reached; saving never depends on the event stream.
func (f *DefaultFactory) connectPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

// CreateSummaryWriter returns the Google Sheets writer when a spreadsheet is
// configured and the in-memory writer otherwise.
func (f *DefaultFactory) CreateSummaryWriter(ctx context.Context, config Config) (sheets.SummaryWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("No spreadsheet configured, keeping summaries in memory")
		return memory.New(), nil
	}
	cli, err := gsheet.NewFromOptions(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		Logger:          f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets summary writer", "sheet", cli.SheetName())
	return cli, nil
}
