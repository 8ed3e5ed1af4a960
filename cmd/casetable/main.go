package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/table"

	"covidvax/internal/config"
	"covidvax/internal/dataprocessing"
	"covidvax/internal/exporter"
	"covidvax/internal/infrastructure"
	"covidvax/internal/services"
	"covidvax/internal/source"
	"covidvax/pkg/contracts"
	"covidvax/pkg/contracts/domain"
)

// Output formats
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatXLSX  = "xlsx"
)

type options struct {
	configPath string
	source     string
	start      string
	end        string
	state      string
	format     string
	out        string
	version    bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "casetable: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("casetable", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults to "+config.DefaultConfigFile+" when present)")
	fs.StringVar(&o.source, "source", "", "dataset URL or path (overrides the configured source)")
	fs.StringVar(&o.start, "start", "", "first day, YYYY-MM-DD (defaults to the earliest date)")
	fs.StringVar(&o.end, "end", "", "last day, YYYY-MM-DD (defaults to the latest date)")
	fs.StringVar(&o.state, "state", "", "state to show (defaults to the first state in the dataset)")
	fs.StringVar(&o.format, "format", formatTable, "table | csv | xlsx")
	fs.StringVar(&o.out, "out", "", "output file (defaults to stdout)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.format = strings.ToLower(o.format)
	switch o.format {
	case formatTable, formatCSV, formatXLSX:
	default:
		return nil, fmt.Errorf("invalid -format %q: want table, csv or xlsx", o.format)
	}
	return &o, nil
}

func (o *options) query() (services.ViewQuery, error) {
	var q services.ViewQuery
	var err error
	if o.start != "" {
		if q.Start, err = time.Parse(domain.DateLayout, o.start); err != nil {
			return q, fmt.Errorf("invalid -start %q: %w", o.start, err)
		}
	}
	if o.end != "" {
		if q.End, err = time.Parse(domain.DateLayout, o.end); err != nil {
			return q, fmt.Errorf("invalid -end %q: %w", o.end, err)
		}
	}
	q.State = o.state
	return q, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}
	q, err := o.query()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return err
	}
	if o.source != "" {
		cfg.Source.URL = o.source
	}

	// stdout carries the table or export, logs go to stderr
	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	fetcher := source.NewFetcher(cfg.Source, logger)
	loader := dataprocessing.NewLoader(fetcher, cfg.Source.Format, logger)
	svc := services.NewCaseService(loader, cfg.Source.URL, logger)

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, cancel := context.WithTimeout(ctx, cfg.Source.Timeout*time.Duration(cfg.Source.MaxAttempts)+cfg.Source.MaxBackoff)
	defer cancel()

	view, err := svc.View(ctx, q)
	if err != nil {
		return err
	}

	w := stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.out, err)
		}
		defer f.Close()
		w = f
	}

	switch o.format {
	case formatCSV:
		err = exporter.WriteCases(w, view.Records)
	case formatXLSX:
		err = exporter.WriteCasesXLSX(w, view.Records, view.Totals)
	default:
		err = renderTable(w, view, cfg.Dashboard.Title)
	}
	if err != nil {
		return err
	}

	logger.Info("view written",
		slog.String("format", o.format),
		slog.String("state", view.Criteria.State),
		slog.Int("rows", len(view.Records)),
		slog.Int("skipped_rows", view.SkippedRows))
	return nil
}

// renderTable prints the view with column labels and a totals footer
func renderTable(w io.Writer, v *services.View, title string) error {
	fmt.Fprintf(w, "%s\n%s, %s to %s\n",
		title,
		v.Criteria.State,
		v.Criteria.Start.Format(domain.DateLayout),
		v.Criteria.End.Format(domain.DateLayout))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(v.Columns))
	for _, c := range v.Columns {
		header = append(header, c.Label)
	}
	t.AppendHeader(header)

	rows := make([]table.Row, 0, len(v.Records))
	for _, rec := range v.Records {
		row := make(table.Row, 0, len(v.Columns))
		for _, c := range v.Columns {
			switch c.Key {
			case domain.ColumnDate:
				row = append(row, rec.Date.Format(domain.DateLayout))
			case domain.ColumnState:
				row = append(row, rec.State)
			default:
				n, _ := rec.Value(c.Key)
				row = append(row, c.FormatValue(n))
			}
		}
		rows = append(rows, row)
	}
	t.AppendRows(rows)

	footer := make(table.Row, 0, len(v.Columns))
	for _, c := range v.Columns {
		if n, ok := v.Totals.Value(c.Key); ok {
			footer = append(footer, c.FormatValue(n))
			continue
		}
		footer = append(footer, "")
	}
	if len(footer) > 0 {
		footer[0] = "Total"
	}
	t.AppendFooter(footer)
	t.Render()

	if v.SkippedRows > 0 {
		fmt.Fprintf(w, "%d source rows skipped (unreadable date)\n", v.SkippedRows)
	}
	return nil
}
