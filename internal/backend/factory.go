package backend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/ledger"
	"expenses/internal/ledger/memory"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. The returned backend is
// always an ExpenseService so every mutation is logged and, when AMQP is
// configured, published.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store     ledger.Ledger
		closers   []func() error
		publisher services.EventPublisher
		client    *amqp.Client
	)

	// Dial the broker while the store opens; an unreachable broker only
	// disables events.
	var g errgroup.Group
	if config.AMQPURL != "" {
		g.Go(func() error {
			c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPPublishTimeout)
			if err != nil {
				f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
				return nil
			}
			client = c
			return nil
		})
	}

	g.Go(func() error {
		switch config.Type {
		case JSONBackend:
			s, err := storage.Open(ctx, config.ExpensesFile)
			if err != nil {
				return fmt.Errorf("failed to open expenses file: %w", err)
			}
			store = s
			f.logger.DebugContext(ctx, "Initialized JSON backend", log.FieldPath, s.Path())
		case SQLiteBackend:
			repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize SQLite repository: %w", err)
			}
			store = repo
			closers = append(closers, repo.Close)
			f.logger.DebugContext(ctx, "Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)
		case MemoryBackend:
			store = memory.New()
			f.logger.DebugContext(ctx, "Initialized memory backend")
		default:
			return fmt.Errorf("unsupported backend type: %s", config.Type)
		}
		return nil
	})

	err := g.Wait()
	if client != nil {
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		publisher = client
		closers = append([]func() error{client.Close}, closers...)
		f.logger.DebugContext(ctx, "Initialized AMQP client",
			log.FieldExchange, config.AMQPExchange,
			log.FieldQueue, config.AMQPQueue)
	}
	if err != nil {
		return nil, err
	}

	svc := services.NewExpenseService(store, publisher, f.logger)
	for _, fn := range closers {
		svc.OnClose(fn)
	}

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
	}, nil
}
