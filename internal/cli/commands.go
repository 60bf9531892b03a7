package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage error")

const usageText = `Expense Tracker CLI

Usage:
  expenses <command> [flags]

Commands:
  add      Add a new expense (-d/--date YYYY-MM-DD, -desc/--description TEXT, -a/--amount NUMBER)
  list     List all expenses
  delete   Delete an expense by ID (-id/--id ID)
  summary  Sum of all expenses recorded
`

// App dispatches one command against a ledger.
type App struct {
	ledger ledger.Ledger
	out    io.Writer
	errOut io.Writer
	logger *log.Logger
}

func NewApp(l ledger.Ledger, out, errOut io.Writer, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(log.Config{Output: errOut, Level: log.DefaultConfig().Level})
	}
	return &App{
		ledger: l,
		out:    out,
		errOut: errOut,
		logger: logger.WithComponent(log.ComponentCLI),
	}
}

// Run executes the command named by args[0]. Validation failures are printed
// and return nil; storage failures are returned.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.errOut, usageText)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	a.logger.DebugContext(ctx, "Running command", log.FieldCommand, cmd)

	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "list":
		if err := a.noArgs(cmd, rest); err != nil {
			return err
		}
		return a.list(ctx)
	case "delete":
		return a.delete(ctx, rest)
	case "summary":
		if err := a.noArgs(cmd, rest); err != nil {
			return err
		}
		return a.summary(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		fmt.Fprintf(a.errOut, "unknown command %q\n\n%s", cmd, usageText)
		return ErrUsage
	}
}

func (a *App) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	var date, description, amount string
	fs.StringVar(&date, "d", "", "Date of the expense (YYYY-MM-DD)")
	fs.StringVar(&date, "date", "", "Date of the expense (YYYY-MM-DD)")
	fs.StringVar(&description, "desc", "", "Description of the expense")
	fs.StringVar(&description, "description", "", "Description of the expense")
	fs.StringVar(&amount, "a", "", "Amount of the expense")
	fs.StringVar(&amount, "amount", "", "Amount of the expense")
	if err := a.parse(fs, args, [][]string{{"d", "date"}, {"desc", "description"}, {"a", "amount"}}); err != nil {
		return err
	}

	value, err := core.ParseAmount(amount)
	if err != nil {
		return a.reportValidation(ctx, err)
	}
	id, err := a.ledger.Add(ctx, date, description, value)
	if err != nil {
		return a.reportValidation(ctx, err)
	}
	fmt.Fprintf(a.out, "Expense added successfully (ID: %s)\n", id)
	return nil
}

func (a *App) list(ctx context.Context) error {
	records, err := a.ledger.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No expenses recorded")
		return nil
	}

	header := fmt.Sprintf("%-36s | %-12s | %-20s | %10s", "ID", "Date", "Description", "Amount")
	fmt.Fprintln(a.out, header)
	fmt.Fprintln(a.out, strings.Repeat("-", len(header)))
	for _, r := range records {
		fmt.Fprintf(a.out, "%-36s | %-12s | %-20s | %10s\n",
			r.ID, r.Date, r.Description, core.FormatAmount(decimal.NewFromFloat(r.Amount)))
	}
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	var id string
	fs.StringVar(&id, "id", "", "ID of the expense to delete")
	if err := a.parse(fs, args, [][]string{{"id"}}); err != nil {
		return err
	}

	found, err := a.ledger.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(a.out, "ID Not Found")
		return nil
	}
	fmt.Fprintf(a.out, "Expense with ID %s successfully deleted\n", id)
	return nil
}

func (a *App) summary(ctx context.Context) error {
	total, err := a.ledger.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total Expenses: %s\n", core.FormatAmount(total))
	return nil
}

func (a *App) reportValidation(ctx context.Context, err error) error {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	a.logger.DebugContext(ctx, "Rejected input", log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return nil
}

func (a *App) noArgs(cmd string, args []string) error {
	if len(args) == 0 {
		return nil
	}
	a.logger.Debug("Rejected arguments", log.FieldCommand, cmd, log.FieldErrorType, log.ErrorTypeUsage)
	fmt.Fprintf(a.errOut, "%s: unrecognized arguments: %s\n", cmd, strings.Join(args, " "))
	return fmt.Errorf("%s: %w", cmd, ErrUsage)
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parse parses args and checks that at least one name of every required
// group was given.
func (a *App) parse(fs *flag.FlagSet, args []string, required [][]string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), ErrUsage)
	}
	if err := a.noArgs(fs.Name(), fs.Args()); err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var missing []string
	for _, group := range required {
		ok := false
		for _, name := range group {
			ok = ok || set[name]
		}
		if !ok {
			missing = append(missing, "-"+strings.Join(group, "/--"))
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(a.errOut, "%s: missing required flags: %s\n", fs.Name(), strings.Join(missing, ", "))
		return fmt.Errorf("%s: %w", fs.Name(), ErrUsage)
	}
	return nil
}
