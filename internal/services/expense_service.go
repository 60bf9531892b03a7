package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

// EventPublisher sends expense change events.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService wraps a ledger and publishes a change event after every
// successful mutation. Publish failures are logged, never returned.
type ExpenseService struct {
	ledger    ledger.Ledger
	publisher EventPublisher
	logger    *log.Logger
	closers   []func() error
}

func NewExpenseService(l ledger.Ledger, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		ledger:    l,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// OnClose registers a cleanup run by Close, in registration order.
func (s *ExpenseService) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Add stores the expense and publishes a created event.
func (s *ExpenseService) Add(ctx context.Context, date, description string, amount decimal.Decimal) (uuid.UUID, error) {
	id, err := s.ledger.Add(ctx, date, description, amount)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.logger.DebugContext(ctx, "Expense rejected",
				log.NewFields().WithOperation(log.OpCreate).WithErrorType(log.ErrorTypeValidation).WithError(err).ToSlice()...)
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(id.String(), date, description, amount.String()).ToSlice()...)

	ev := amqp.NewExpenseEvent(amqp.EventExpenseCreated, id)
	ev.Date = date
	ev.Description = description
	ev.Amount = amount.String()
	s.publish(ctx, ev)

	return id, nil
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Record, error) {
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	s.logger.DebugContext(ctx, "Expenses listed", log.FieldOperation, log.OpList, "count", len(records))
	return records, nil
}

// Delete removes the expense and publishes a deleted event when one was found.
func (s *ExpenseService) Delete(ctx context.Context, id string) (bool, error) {
	found, err := s.ledger.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}

	if !found {
		s.logger.InfoContext(ctx, "Expense not found",
			log.FieldOperation, log.OpDelete, log.FieldExpenseID, id, log.FieldErrorType, log.ErrorTypeNotFound)
		return false, nil
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)

	// Only well-formed ids can have been stored.
	if uid, err := uuid.Parse(id); err == nil {
		s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, uid))
	}
	return true, nil
}

func (s *ExpenseService) Summarize(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.ledger.Summarize(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summarize expenses: %w", err)
	}
	s.logger.DebugContext(ctx, "Expenses summarized", log.FieldOperation, log.OpSummary, log.FieldAmount, total.String())
	return total, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", "type", ev.Type)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.NewFields().WithOperation(log.OpPublish).WithErrorType(log.ErrorTypeNetwork).WithError(err).ToSlice()...)
	}
}

// Close runs the registered cleanups and joins their errors.
func (s *ExpenseService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
