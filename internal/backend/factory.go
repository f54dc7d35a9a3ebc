package backend

import (
	"context"
	"errors"
	"fmt"

	"finbook/internal/amqp"
	"finbook/internal/config"
	applog "finbook/internal/log"
	"finbook/internal/storage"
	"finbook/internal/storage/memory"
	"finbook/internal/storage/textfile"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(ctx context.Context, url, exchange, queue string, logger *applog.Logger) (*amqp.Client, error)
}

func NewFactory(logger *applog.Logger) *DefaultFactory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(applog.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:             backendType,
		TransactionsFile: appConfig.TransactionsFile,
		ExpensesFile:     appConfig.ExpensesFile,
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		AMQPURL:          appConfig.AMQPURL,
		AMQPExchange:     appConfig.AMQPExchange,
		AMQPQueue:        appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case FileBackend:
		if c.TransactionsFile == "" || c.ExpensesFile == "" {
			return errors.New("transactions and expenses file paths are required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		backend = &Backend{}
		closers []func() error
	)

	switch cfg.Type {
	case FileBackend:
		backend.Transactions = textfile.NewTransactionFile(cfg.TransactionsFile, f.logger.WithComponent(applog.ComponentStorage).Slog())
		backend.Expenses = textfile.NewExpenseFile(cfg.ExpensesFile)
		f.logger.InfoContext(ctx, "Initialized file backend",
			"transactions_file", cfg.TransactionsFile,
			"expenses_file", cfg.ExpensesFile)
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite store: %w", err)
		}
		backend.Transactions = store
		backend.Expenses = store
		backend.Ping = store.Ping
		closers = append(closers, store.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store := memory.New()
		backend.Transactions = store
		backend.Expenses = store
		f.logger.WarnContext(ctx, "Initialized memory backend, records are lost on restart")
	}

	if cfg.AMQPURL != "" {
		client, err := f.dialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			// Records are still stored; only the mirror falls behind.
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", applog.FieldError, err)
		} else {
			backend.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP publisher",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return &BackendResult{
		Backend: backend,
		Cleanup: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}
