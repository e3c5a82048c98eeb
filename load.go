package goibis

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/goibis/goibis/ibis"
)

// ParseAll parses every file src lists, several at a time. Each file is
// an independent parse with its own state; the grammars are shared.
// Documents are returned sorted by name. Files that fail contribute to
// the joined error and are left out of the result.
func ParseAll(ctx context.Context, src Source, opts ...Option) ([]*ibis.Document, error) {
	if src == nil {
		return nil, ErrNoSources
	}
	cfg := newConfig(opts)
	logger := cfg.logger

	files, err := src.ListFiles(cfg.extensions)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.LogAttrs(ctx, slog.LevelInfo, "parallel parsing", slog.Int("files", len(files)))
	}

	heuristic := defaultHeuristic()
	if cfg.noHeuristic {
		heuristic.enabled = false
	}

	type result struct {
		doc *ibis.Document
		err error
	}
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())

	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			content, err := readAll(src, path)
			if err != nil {
				results <- result{err: fmt.Errorf("%s: %w", path, err)}
				return
			}
			if !heuristic.looksLikeIBIS(content) {
				if logger != nil {
					logger.LogAttrs(ctx, slog.LevelDebug, "content rejected by heuristic", slog.String("path", path))
				}
				return
			}

			fileCfg := cfg
			fileCfg.name = path
			pre, err := fileCfg.detect(path)
			if err == nil {
				var doc *ibis.Document
				if doc, err = fileCfg.parse(ctx, bytes.NewReader(content), pre); err == nil {
					results <- result{doc: doc}
					return
				}
			}
			results <- result{err: fmt.Errorf("%s: %w", path, err)}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var docs []*ibis.Document
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		docs = append(docs, r.doc)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	slices.SortFunc(docs, func(a, b *ibis.Document) int {
		return cmp.Compare(a.Name, b.Name)
	})
	if logger != nil {
		logger.LogAttrs(ctx, slog.LevelInfo, "parallel parsing complete",
			slog.Int("documents", len(docs)),
			slog.Int("failed", len(errs)))
	}
	return docs, errors.Join(errs...)
}

func readAll(src Source, path string) ([]byte, error) {
	r, err := src.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

var sigVersion = []byte("[ibis ver]")

type heuristicConfig struct {
	enabled      bool
	maxProbeSize int
}

func defaultHeuristic() heuristicConfig {
	return heuristicConfig{
		enabled:      true,
		maxProbeSize: 64 * 1024,
	}
}

// looksLikeIBIS reports whether content is text carrying an [IBIS Ver]
// keyword near its start.
func (h *heuristicConfig) looksLikeIBIS(content []byte) bool {
	if !h.enabled {
		return true
	}
	probe := content[:min(len(content), h.maxProbeSize)]
	if len(probe) == 0 || bytes.IndexByte(probe, 0) >= 0 {
		return false
	}
	return bytes.Contains(bytes.ToLower(probe), sigVersion)
}
