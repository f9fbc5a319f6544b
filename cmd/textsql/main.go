// Command textsql loads delimited or fixed-width text documents into
// in-memory tables and runs a SQL query against them.
//
//	textsql -q 'SELECT * FROM THIS WHERE a > 1' data.csv
//	textsql -sep '|' -q 'SELECT COUNT(*) FROM THIS' report.txt.gz
//	cat data.tsv | textsql -q 'SELECT * FROM THIS' -
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/nao1215/textsql"
	"github.com/nao1215/textsql/config"
	"github.com/nao1215/textsql/domain/model"
	"github.com/nao1215/textsql/logging"
)

func main() {
	// Overload lets a local .env override the shell environment
	_ = godotenv.Overload() //nolint:errcheck // a missing .env is normal

	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	query       string
	separator   string
	qualifier   string
	widths      string
	output      string
	format      string
	compression string
	history     string
	document    string
	documents   []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("textsql", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: textsql [flags] -q QUERY DOCUMENT...")
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.query, "q", "", "SQL query run against table THIS")
	fs.StringVar(&opts.separator, "sep", "", "field separator, overrides detection (e.g. ',' or 'tab')")
	fs.StringVar(&opts.qualifier, "quote", "", "text qualifier used with -sep (default '\"', 'none' to disable)")
	fs.StringVar(&opts.widths, "widths", "", "comma separated fixed field widths, overrides detection")
	fs.StringVar(&opts.output, "o", "", "output file (default stdout)")
	fs.StringVar(&opts.format, "format", "csv", "output format: csv, tsv, xlsx, parquet")
	fs.StringVar(&opts.compression, "compress", "none", "output compression: none, gz, xz, zst")
	fs.StringVar(&opts.history, "history", "", "query history file (default $TEXTSQL_HISTORY_FILE)")
	fs.StringVar(&opts.document, "doc", "", "document to query (default the last one loaded)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.documents = fs.Args()

	if strings.TrimSpace(opts.query) == "" {
		fs.Usage()
		return nil, errors.New("a query is required")
	}
	if len(opts.documents) == 0 {
		fs.Usage()
		return nil, errors.New("at least one document is required")
	}
	if opts.separator != "" && opts.widths != "" {
		return nil, errors.New("-sep and -widths are mutually exclusive")
	}
	return opts, nil
}

// settings returns the format given on the command line, if any
func (o *options) settings() (model.FormatSettings, bool, error) {
	if o.widths != "" {
		parts := strings.Split(o.widths, ",")
		widths := make([]int, 0, len(parts))
		for _, p := range parts {
			w, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return model.FormatSettings{}, false, fmt.Errorf("invalid width %q: %w", p, err)
			}
			widths = append(widths, w)
		}
		s := model.NewFixedWidthSettings(widths...)
		return s, true, s.Validate()
	}
	if o.separator == "" {
		return model.FormatSettings{}, false, nil
	}

	sep, err := parseRune(o.separator)
	if err != nil {
		return model.FormatSettings{}, false, fmt.Errorf("invalid separator: %w", err)
	}
	qual := '"'
	switch o.qualifier {
	case "":
	case "none":
		qual = 0
	default:
		if qual, err = parseRune(o.qualifier); err != nil {
			return model.FormatSettings{}, false, fmt.Errorf("invalid qualifier: %w", err)
		}
	}
	s := model.NewDelimitedSettings(sep, qual)
	return s, true, s.Validate()
}

func parseRune(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := execute(ctx, cfg, opts, logger, stdin, stdout); err != nil {
		fmt.Fprintln(stderr, "textsql:", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, opts *options, logger *slog.Logger, stdin io.Reader, stdout io.Writer) (err error) {
	settings, override, err := opts.settings()
	if err != nil {
		return err
	}
	exportOptions, err := opts.exportOptions()
	if err != nil {
		return err
	}

	engine, err := textsql.NewBuilder().WithConfig(cfg).WithLogger(logger).Build(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var last string
	for _, arg := range opts.documents {
		docs, err := openDocuments(ctx, arg, stdin)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := ingest(ctx, engine, doc, settings, override); err != nil {
				return err
			}
			last = doc.ID
		}
	}

	active := last
	if opts.document != "" {
		active = opts.document
	}
	if err := engine.SetActive(active); err != nil {
		return err
	}

	result, err := engine.RunQuery(ctx, "", opts.query, true)
	if err != nil {
		return err
	}

	historyPath := opts.history
	if historyPath == "" {
		historyPath = cfg.History.File
	}
	if historyPath != "" {
		history := textsql.NewHistory(historyPath, cfg.History.Max, cfg.History.Trim)
		if err := history.Append(opts.query); err != nil {
			logger.Warn("failed to record query", "error", err)
		}
	}

	return writeResult(engine, opts.output, result, exportOptions, stdout)
}

func (o *options) exportOptions() (textsql.ExportOptions, error) {
	format, err := textsql.ParseExportFormat(o.format)
	if err != nil {
		return textsql.ExportOptions{}, err
	}
	compression, err := textsql.ParseCompressionType(o.compression)
	if err != nil {
		return textsql.ExportOptions{}, err
	}
	if compression == textsql.CompressionBZ2 {
		return textsql.ExportOptions{}, errors.New("bzip2 output is not supported")
	}
	return textsql.NewExportOptions().WithFormat(format).WithCompression(compression), nil
}

// openDocuments resolves one command line argument: "-" reads stdin under a
// fresh identifier, anything else is a path or doublestar pattern.
func openDocuments(ctx context.Context, arg string, stdin io.Reader) ([]*textsql.Document, error) {
	if arg == "-" {
		doc, err := textsql.ReadDocument(ctx, stdin, uuid.NewString(), "")
		if err != nil {
			return nil, err
		}
		return []*textsql.Document{doc}, nil
	}

	paths, err := textsql.ExpandPath(arg)
	if err != nil {
		return nil, err
	}
	docs := make([]*textsql.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := textsql.OpenDocument(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func ingest(ctx context.Context, engine *textsql.Engine, doc *textsql.Document, settings model.FormatSettings, override bool) error {
	var err error
	switch {
	case doc.Tabular():
		_, err = engine.IngestDocument(ctx, doc)
	case override:
		_, err = engine.Ingest(ctx, doc.ID, doc.Text, settings)
	default:
		_, err = engine.IngestAuto(ctx, doc.ID, doc.Text)
	}
	if errors.Is(err, textsql.ErrDetectionFailure) {
		return fmt.Errorf("%w: give the format of %s with -sep or -widths", err, doc.ID)
	}
	return err
}

func writeResult(engine *textsql.Engine, path string, result *textsql.ResultSet, options textsql.ExportOptions, stdout io.Writer) error {
	if path == "" {
		return engine.Export(stdout, result, options)
	}

	f, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := engine.Export(f, result, options); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
