package textsql

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nao1215/textsql/config"
	"github.com/nao1215/textsql/domain/model"
)

// supportedExtensions lists the document extensions picked up from paths and
// filesystems, before any compression suffix
var supportedExtensions = map[string]bool{
	extCSV:     true,
	extTSV:     true,
	".txt":     true,
	".dat":     true,
	".prn":     true,
	".psv":     true,
	extXLSX:    true,
	extParquet: true,
}

// IsSupportedDocument reports whether path names a document the builder loads
func IsSupportedDocument(path string) bool {
	base := RemoveCompressionExtension(path)
	return supportedExtensions[strings.ToLower(filepath.Ext(base))]
}

// Builder configures and creates an Engine, optionally preloading documents.
//
// The typical usage pattern is:
//
//	engine, err := textsql.NewBuilder().
//		WithRowPolicy(model.RowPolicyStrict).
//		AddPath("data/**/*.csv").
//		Build(ctx)
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
type Builder struct {
	cfg         engineConfig
	paths       []string
	filesystems []fs.FS
}

// NewBuilder creates a builder with default settings and no documents.
func NewBuilder() *Builder {
	return &Builder{
		cfg:         defaultEngineConfig(),
		paths:       make([]string, 0),
		filesystems: make([]fs.FS, 0),
	}
}

// WithConfig applies settings loaded by the config package.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg.sampleLines = cfg.Detect.SampleLines
	b.cfg.typeSampleSize = cfg.Ingest.TypeSampleSize
	if policy, err := model.ParseRowPolicy(cfg.Ingest.RowPolicy); err == nil {
		b.cfg.rowPolicy = policy
	}
	b.cfg.pipeCapacity = cfg.Stream.PipeCapacity
	b.cfg.memoryLimitMB = cfg.Ingest.MemoryLimitMB
	return b
}

// WithSampleLines sets how many leading lines format detection inspects.
// Values below model.DefaultSampleLines are raised to it.
func (b *Builder) WithSampleLines(n int) *Builder {
	b.cfg.sampleLines = n
	return b
}

// WithTypeSampleSize sets how many rows per column type inference inspects.
func (b *Builder) WithTypeSampleSize(n int) *Builder {
	b.cfg.typeSampleSize = n
	return b
}

// WithRowPolicy sets how rows with the wrong number of fields are handled.
func (b *Builder) WithRowPolicy(policy model.RowPolicy) *Builder {
	b.cfg.rowPolicy = policy
	return b
}

// WithPipeCapacity sets the number of chunks GenerateText buffers.
func (b *Builder) WithPipeCapacity(n int) *Builder {
	b.cfg.pipeCapacity = n
	return b
}

// WithMemoryLimit refuses ingestion once the heap exceeds mb megabytes.
// Zero disables the check.
func (b *Builder) WithMemoryLimit(mb int64) *Builder {
	b.cfg.memoryLimitMB = mb
	return b
}

// WithLogger sets the logger. The default is slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.cfg.logger = logger
	return b
}

// AddPath adds a document path. The path may be a doublestar pattern such as
// "data/**/*.csv"; every supported file it matches is loaded.
func (b *Builder) AddPath(path string) *Builder {
	b.paths = append(b.paths, path)
	return b
}

// AddPaths adds multiple document paths or patterns.
func (b *Builder) AddPaths(paths ...string) *Builder {
	b.paths = append(b.paths, paths...)
	return b
}

// AddFS adds every supported document in filesystem, searched recursively.
// Documents are identified by their path inside the filesystem.
func (b *Builder) AddFS(filesystem fs.FS) *Builder {
	b.filesystems = append(b.filesystems, filesystem)
	return b
}

// validate checks the configured settings
func (b *Builder) validate() error {
	var errs []error
	if b.cfg.sampleLines < 0 {
		errs = append(errs, errors.New("sample lines must not be negative"))
	}
	if b.cfg.typeSampleSize < 0 {
		errs = append(errs, errors.New("type sample size must not be negative"))
	}
	if b.cfg.pipeCapacity < 0 {
		errs = append(errs, errors.New("pipe capacity must not be negative"))
	}
	if b.cfg.memoryLimitMB < 0 {
		errs = append(errs, errors.New("memory limit must not be negative"))
	}
	for _, fsys := range b.filesystems {
		if fsys == nil {
			errs = append(errs, errors.New("FS cannot be nil"))
		}
	}
	return errors.Join(errs...)
}

// Build validates the settings, creates the Engine and ingests every added
// document with format detection. The last document loaded becomes active.
// If any document fails the engine is closed and the error returned.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("invalid builder settings: %w", err)
	}

	engine := newEngine(b.cfg)
	var last string
	fail := func(err error) (*Engine, error) {
		if closeErr := engine.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to close engine: %w", closeErr))
		}
		return nil, err
	}

	for _, pattern := range b.paths {
		paths, err := ExpandPath(pattern)
		if err != nil {
			return fail(err)
		}
		for _, path := range paths {
			doc, err := OpenDocument(ctx, path)
			if err != nil {
				return fail(err)
			}
			if _, err := engine.IngestDocument(ctx, doc); err != nil {
				return fail(err)
			}
			last = doc.ID
		}
	}

	for _, fsys := range b.filesystems {
		ids, err := loadFS(ctx, engine, fsys)
		if err != nil {
			return fail(fmt.Errorf("failed to process FS input: %w", err))
		}
		if len(ids) > 0 {
			last = ids[len(ids)-1]
		}
	}

	if last != "" {
		if err := engine.SetActive(last); err != nil {
			return fail(err)
		}
	}
	return engine, nil
}

// ExpandPath resolves a path or doublestar pattern to document paths
func ExpandPath(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if IsSupportedDocument(match) {
			paths = append(paths, match)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no supported documents match %s", pattern)
	}
	return paths, nil
}

// loadFS ingests every supported document in fsys and returns their IDs
func loadFS(ctx context.Context, engine *Engine, fsys fs.FS) ([]string, error) {
	matches, err := doublestar.Glob(fsys, "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to walk filesystem: %w", err)
	}

	var ids []string
	for _, match := range matches {
		if !IsSupportedDocument(match) {
			continue
		}
		doc, err := openFSDocument(ctx, fsys, match)
		if err != nil {
			return nil, err
		}
		if _, err := engine.IngestDocument(ctx, doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if len(ids) == 0 {
		return nil, errors.New("no supported files found in filesystem")
	}
	return ids, nil
}

func openFSDocument(ctx context.Context, fsys fs.FS, path string) (*Document, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FS file: %w", err)
	}
	defer f.Close()
	return ReadDocument(ctx, f, path, path)
}
