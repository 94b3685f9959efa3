// Package service runs catalog parsers over uploaded CSV streams.
//
// It owns everything around the engine: parser lookup, upload size and row
// limits, concurrency limits, timeouts, run IDs and logging. The rules
// package stays free of all of these.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/config"
	"github.com/JonMunkholm/csvrules/internal/logging"
	"github.com/JonMunkholm/csvrules/internal/rules"
)

var (
	ErrUnknownParser = errors.New("unknown parser")
	ErrFileTooLarge  = errors.New("file too large")
	ErrRowLimit      = errors.New("row limit exceeded")
	ErrTooManyParses = errors.New("too many concurrent parses")
	ErrNoFile        = errors.New("no file provided")
)

// ctxCheckInterval is how many rows are parsed between context checks.
const ctxCheckInterval = 256

// Options configures a Service.
type Options struct {
	Reader        rules.ReaderOptions
	MaxFileSize   int64         // Bytes; 0 disables the limit
	MaxRows       int           // Rows per parse; 0 disables the limit
	Timeout       time.Duration // Per parse; 0 disables the timeout
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs parse requests. It is safe for concurrent use.
type Service struct {
	opts    Options
	limiter *Limiter
	lookup  func(name string) (catalog.Entry, bool)
}

// New creates a Service resolving parsers from the catalog.
func New(opts Options) *Service {
	return &Service{
		opts:    opts,
		limiter: NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		lookup:  catalog.Get,
	}
}

// NewFromConfig creates a Service from the reader and parse settings.
func NewFromConfig(cfg *config.Config) *Service {
	return New(Options{
		Reader:        cfg.Reader.Options(),
		MaxFileSize:   cfg.Parse.MaxFileSize,
		MaxRows:       cfg.Parse.MaxRows,
		Timeout:       cfg.Parse.Timeout,
		MaxConcurrent: cfg.Parse.MaxConcurrent,
		MaxWait:       cfg.Parse.MaxWait,
	})
}

// Limiter exposes the concurrency limiter for health output and shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Request is one parse of one upload.
type Request struct {
	Parser string
	Body   io.Reader
	Size   int64 // Declared size if known, checked before reading

	// Limit caps the rows returned. With Truncate set, parsing stops
	// quietly at Limit; otherwise more rows than Limit is ErrRowLimit.
	// The service's MaxRows still applies when Limit is zero or larger.
	Limit    int
	Truncate bool
}

// Result is the outcome of a successful parse.
type Result struct {
	RunID        string         `json:"run_id"`
	Parser       string         `json:"parser"`
	Header       []string       `json:"header"`
	Rows         []rules.Result `json:"rows"`
	RowsRead     int            `json:"rows_read"`
	DroppedCells int            `json:"dropped_cells"`
	Truncated    bool           `json:"truncated"`
	BytesRead    int64          `json:"bytes_read"`
	Duration     time.Duration  `json:"-"`
	DurationMs   int64          `json:"duration_ms"`
}

// Parse runs the named parser over req.Body and collects every row.
func (s *Service) Parse(ctx context.Context, req Request) (*Result, error) {
	if req.Body == nil {
		return nil, ErrNoFile
	}
	entry, ok := s.lookup(req.Parser)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownParser, req.Parser)
	}
	if s.opts.MaxFileSize > 0 && req.Size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, req.Size, s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithFields(ctx, "parser", entry.Name)
	start := time.Now()
	logger.Debug("parse started", "declared_size", req.Size)

	res, err := s.run(ctx, entry, req)
	if err != nil {
		logger.Warn("parse failed", "error", err, "code", MapError(err).Code, "duration", time.Since(start))
		return nil, err
	}
	res.RunID = runID
	res.Duration = time.Since(start)
	res.DurationMs = res.Duration.Milliseconds()

	logger.Info("parse completed",
		"rows", len(res.Rows),
		"rows_read", res.RowsRead,
		"dropped_cells", res.DroppedCells,
		"truncated", res.Truncated,
		"bytes", res.BytesRead,
		"duration", res.Duration,
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, entry catalog.Entry, req Request) (*Result, error) {
	body := newCountingReader(req.Body, s.opts.MaxFileSize)
	p := rules.NewCSVParser(entry.Type, body, s.opts.Reader)

	header, err := p.Header()
	if err != nil {
		return nil, err
	}

	limit := s.opts.MaxRows
	if req.Limit > 0 && (limit <= 0 || req.Limit < limit) {
		limit = req.Limit
	}

	res := &Result{
		Parser: entry.Name,
		Header: header,
		Rows:   []rules.Result{},
	}
	for row, err := range p.All() {
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(res.Rows) >= limit {
			if !req.Truncate {
				return nil, fmt.Errorf("%w: more than %d rows", ErrRowLimit, limit)
			}
			res.Truncated = true
			break
		}
		res.Rows = append(res.Rows, row)
		if len(res.Rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := p.Stats()
	res.RowsRead = st.RowsRead
	res.DroppedCells = st.DroppedCells
	res.BytesRead = body.BytesRead()
	return res, nil
}
