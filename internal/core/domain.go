package core

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical textual form of a Date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Expense is one validated expense entry. Build it with NewExpense or
	// NewExpenseFromDate; the zero value is not valid.
	Expense struct {
		ID          uuid.UUID
		Date        Date
		Description string
		Amount      decimal.Decimal
	}

	// Record is the persistent form of an Expense.
	Record struct {
		ID          string  `json:"id"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
)

var (
	ErrInvalidID          = errors.New("must be a valid UUID")
	ErrInvalidDate        = errors.New("must be in 'YYYY-MM-DD' format")
	ErrInvalidDescription = errors.New("must be valid UTF-8 text")
	ErrInvalidAmount      = errors.New("must be a number")
	ErrNegativeAmount     = errors.New("must not be negative")
	ErrAmountOutOfRange   = errors.New("is out of range")
)

// ValidationError reports an expense field that failed validation.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s (provided value: %q)", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, invalid("date", s, ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

// String returns the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", "", ErrInvalidDate)
	}
	return nil
}

// NewExpense validates raw field values and builds an Expense.
func NewExpense(id, date, description string, amount decimal.Decimal) (Expense, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Expense{}, invalid("id", id, ErrInvalidID)
	}
	d, err := ParseDate(date)
	if err != nil {
		return Expense{}, err
	}
	return NewExpenseFromDate(uid, d, description, amount)
}

// NewExpenseFromDate builds an Expense from an already typed id and date.
func NewExpenseFromDate(id uuid.UUID, date Date, description string, amount decimal.Decimal) (Expense, error) {
	if err := date.Validate(); err != nil {
		return Expense{}, err
	}
	// Drop any time-of-day component.
	y, m, d := date.Date()
	e := Expense{
		ID:          id,
		Date:        NewDate(y, int(m), d),
		Description: description,
		Amount:      amount,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if e.ID == uuid.Nil {
		return invalid("id", e.ID.String(), ErrInvalidID)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !utf8.ValidString(e.Description) {
		return invalid("description", e.Description, ErrInvalidDescription)
	}
	if e.Amount.IsNegative() {
		return invalid("amount", e.Amount.String(), ErrNegativeAmount)
	}
	// Record stores amounts as float64
	if math.IsInf(e.Amount.InexactFloat64(), 0) {
		return invalid("amount", e.Amount.String(), ErrAmountOutOfRange)
	}
	return nil
}

// ToRecord returns the persistent form of e.
func (e Expense) ToRecord() Record {
	return Record{
		ID:          e.ID.String(),
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      e.Amount.InexactFloat64(),
	}
}

// FromRecord validates a persisted record and converts it back to an Expense.
func FromRecord(r Record) (Expense, error) {
	return NewExpense(r.ID, r.Date, r.Description, decimal.NewFromFloat(r.Amount))
}

func (e Expense) String() string {
	return fmt.Sprintf("Expense(ID=%s, Date=%s, Description=%s, Amount=%s)", e.ID, e.Date, e.Description, e.Amount)
}
