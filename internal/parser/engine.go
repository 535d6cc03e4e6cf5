package parser

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/willibrandon/pageview/internal/config"
	"github.com/willibrandon/pageview/internal/logger"
	"github.com/willibrandon/pageview/internal/models"
)

// ReadSeekerAt is the file access the engine needs: sequential reads for the
// file header and positioned reads for page headers.
type ReadSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
}

// ParseOptions are the per-call hooks of a parse.
type ParseOptions struct {
	// Progress, if set, receives completed/total in [0,1] after batches and
	// exactly 1.0 on completion.
	Progress func(fraction float64)
	// Cancel, if set, is polled before each batch when cancellation is enabled.
	Cancel *atomic.Bool
}

// Engine walks every page of a file in batches.
type Engine struct {
	cfg config.BatchParseConfig
}

// NewEngine creates an engine. Non-positive batch sizes fall back to the
// default and oversized ones are capped at config.MaxBatchSize.
func NewEngine(cfg config.BatchParseConfig) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.DefaultBatchSize
	}
	if cfg.BatchSize > config.MaxBatchSize {
		cfg.BatchSize = config.MaxBatchSize
	}
	if cfg.ProgressUpdateInterval < 0 {
		cfg.ProgressUpdateInterval = 0
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() config.BatchParseConfig {
	return e.cfg
}

// ParseFile opens path and parses it. See Parse.
func (e *Engine) ParseFile(ctx context.Context, path string, opts ParseOptions) (*models.DatabaseInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat database file: %w", err)
	}

	info, err := e.Parse(ctx, f, st.Size(), opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Parsed database file",
		"path", path,
		"pages", info.PageCount(),
		"skipped", info.SkippedCount(),
	)
	return info, nil
}

// Parse decodes the header and then every whole page of r, whose total size
// is size bytes. A trailing partial page is ignored. Pages that fail to
// decode are left out of the result and listed in SkippedPages.
//
// The result is nil on any error. ErrCancelled is returned when the cancel
// flag or ctx is observed at a batch boundary.
func (e *Engine) Parse(ctx context.Context, r ReadSeekerAt, size int64, opts ParseOptions) (*models.DatabaseInfo, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("read database header: %w", err)
	}
	if !header.IsValidSQLiteFile() {
		return nil, fmt.Errorf("%w: unexpected magic %q", ErrInvalidFormat, header.Magic[:])
	}

	pageSize := header.ActualPageSize()
	if pageSize == 0 {
		return nil, fmt.Errorf("%w: page size is zero", ErrInvalidFormat)
	}

	totalPages := uint32(math.MaxUint32)
	if n := size / int64(pageSize); n < math.MaxUint32 {
		totalPages = uint32(n)
	}
	if totalPages != header.DatabaseSize {
		logger.Debug("File size disagrees with header page count",
			"file_pages", totalPages,
			"header_pages", header.DatabaseSize,
		)
	}

	pages := make(map[uint32]models.PageInfo, totalPages)
	var skipped []uint32

	batchSize := uint32(e.cfg.BatchSize)
	lastProgress := time.Now()

	for start := uint32(1); start <= totalPages && start != 0; start += batchSize {
		if err := e.checkCancelled(ctx, opts.Cancel); err != nil {
			return nil, err
		}

		end := totalPages
		if remaining := totalPages - start; remaining >= batchSize {
			end = start + batchSize - 1
		}

		for n := start; n <= end && n != 0; n++ {
			info, err := ScanPage(r, &header, pageSize, n)
			if err != nil {
				logger.Warn("Failed to parse page", "page", n, "error", err)
				skipped = append(skipped, n)
				continue
			}
			pages[n] = info
		}

		if opts.Progress != nil && time.Since(lastProgress) >= e.cfg.ProgressUpdateInterval {
			opts.Progress(float64(end) / float64(totalPages))
			lastProgress = time.Now()
		}

		if end == totalPages {
			break
		}
		runtime.Gosched()
	}

	if opts.Progress != nil {
		opts.Progress(1.0)
	}

	return models.NewDatabaseInfo(header, pages, uint64(size), skipped), nil
}

// checkCancelled reports ErrCancelled when ctx is done, or when cancellation
// is enabled and the flag is set.
func (e *Engine) checkCancelled(ctx context.Context, flag *atomic.Bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if e.cfg.EnableCancellation && flag != nil && flag.Load() {
		return ErrCancelled
	}
	return nil
}
