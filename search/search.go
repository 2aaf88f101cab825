// Package search implements the data-parallel full-scan search over a
// Reader's row-ordinal range. Workers partition the range into contiguous
// chunks (rather than pulling from a shared queue) so per-hit overhead
// stays minimal and the merge step is a simple linear pass over workers in
// ordinal order — which is already ascending order, since partitions are
// contiguous.
package search

import (
	"bytes"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/massive-csv/massivecsv/csverr"
	"github.com/massive-csv/massivecsv/csvfmt"
)

// Rows is the minimal surface Search needs from a reader: an ordinal row
// count plus raw/decoded row access. engine.Reader satisfies this
// directly; edit.Editor wires a RowDecoder that consults its overlay
// first, so a search issued through an in-progress edit session sees
// pending edits instead of the on-disk original.
type Rows interface {
	RowCount() int
	GetRowRaw(n int) ([]byte, error)
	Delimiter() byte
	Headers() []string
}

// RowDecoder returns the effective fields for row n — the overlay's
// fields if n is pending edit, otherwise the Reader's decoded original.
// Search always calls this instead of decoding raw bytes itself, so the
// overlay is consulted uniformly regardless of caller.
type RowDecoder func(n int) ([]string, error)

// Hit is a single search result.
type Hit struct {
	RowNum int
	Fields []string
}

// Options controls how Search matches and truncates results.
type Options struct {
	// Column restricts matching to one column, by header name or numeric
	// index. Empty means search every column.
	Column string
	// CaseSensitive, when false, folds both the query and candidate bytes
	// to ASCII lower-case before comparing (non-ASCII bytes pass through
	// unchanged — full Unicode folding is out of scope).
	CaseSensitive bool
	// MaxResults stops appending once this many hits are produced, in
	// ascending ordinal order. Zero means unlimited.
	MaxResults int
}

// Search scans every data row in rows, decoding fields via decode, and
// returns hits in strictly ascending row ordinal regardless of worker
// completion order.
func Search(rows Rows, decode RowDecoder, query string, opts Options) ([]Hit, error) {
	columnIdx := -1
	if opts.Column != "" {
		idx, err := resolveColumn(rows.Headers(), opts.Column)
		if err != nil {
			return nil, err
		}
		columnIdx = idx
	}

	rowCount := rows.RowCount()
	if rowCount == 0 {
		return nil, nil
	}

	workers := runtime.NumCPU()
	if workers > rowCount {
		workers = rowCount
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (rowCount + workers - 1) / workers
	perWorkerHint := opts.MaxResults
	if perWorkerHint <= 0 || perWorkerHint > chunkSize {
		perWorkerHint = chunkSize
	}

	buffers := make([][]Hit, workers)
	var g errgroup.Group

	for w := 0; w < workers; w++ {
		w := w
		start := w * chunkSize
		end := start + chunkSize
		if end > rowCount {
			end = rowCount
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			buf := make([]Hit, 0, perWorkerHint)
			for n := start; n < end; n++ {
				hit, matched, err := matchRow(rows, decode, n, columnIdx, query, opts)
				if err != nil {
					return err
				}
				if matched {
					buf = append(buf, hit)
				}
			}
			buffers[w] = buf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var hits []Hit
	for _, buf := range buffers {
		hits = append(hits, buf...)
		if opts.MaxResults > 0 && len(hits) >= opts.MaxResults {
			break
		}
	}
	if opts.MaxResults > 0 && len(hits) > opts.MaxResults {
		hits = hits[:opts.MaxResults]
	}
	return hits, nil
}

// matchRow decides whether row n matches query under opts, returning the
// decoded Hit when it does. When column is unset and the match is
// case-sensitive, a zero-copy substring prefilter on the raw line runs
// before fields are decoded at all, avoiding decode cost on rows that
// cannot possibly match.
func matchRow(rows Rows, decode RowDecoder, n, column int, query string, opts Options) (Hit, bool, error) {
	if column == -1 && opts.CaseSensitive {
		raw, err := rows.GetRowRaw(n)
		if err != nil {
			return Hit{}, false, err
		}
		if !bytes.Contains(raw, []byte(query)) {
			return Hit{}, false, nil
		}
	}

	fields, err := decode(n)
	if err != nil {
		return Hit{}, false, err
	}

	if column >= 0 {
		if column >= len(fields) {
			return Hit{}, false, nil
		}
		if !contains(fields[column], query, opts.CaseSensitive) {
			return Hit{}, false, nil
		}
		return Hit{RowNum: n, Fields: fields}, true, nil
	}

	for _, f := range fields {
		if contains(f, query, opts.CaseSensitive) {
			return Hit{RowNum: n, Fields: fields}, true, nil
		}
	}
	return Hit{}, false, nil
}

func contains(field, query string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(field, query)
	}
	return strings.Contains(asciiLower(field), asciiLower(query))
}

// asciiLower folds only ASCII bytes; non-ASCII bytes pass through
// unchanged, per the engine's byte-oriented, ASCII-only case folding.
func asciiLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

func resolveColumn(headers []string, spec string) (int, error) {
	for i, h := range headers {
		if h == spec {
			return i, nil
		}
	}
	if idx, ok := parseUint(spec); ok && idx < len(headers) {
		return idx, nil
	}
	return 0, csverr.Newf(csverr.NoSuchColumn, "column %q not found", spec)
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// DecodeFrom adapts a plain Reader into a RowDecoder with no overlay, for
// callers (CLI, tests) that search directly against a Reader rather than
// through an Editor.
func DecodeFrom(rows Rows) RowDecoder {
	return func(n int) ([]string, error) {
		raw, err := rows.GetRowRaw(n)
		if err != nil {
			return nil, err
		}
		return csvfmt.DecodeLine(raw, rows.Delimiter()), nil
	}
}
