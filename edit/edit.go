// Package edit implements the overlay editor: a sparse row-ordinal ->
// field-vector map layered on top of an engine.Reader, with atomic save.
// An Editor is not safe for concurrent mutation — a single logical owner
// issues SetCell/SetRow/Revert*/Save calls serially, matching the
// teacher's single-writer-per-store model (its sync.RWMutex guards
// concurrent readers against the writer, not concurrent writers against
// each other).
package edit

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/massive-csv/massivecsv/csverr"
	"github.com/massive-csv/massivecsv/csvfmt"
	"github.com/massive-csv/massivecsv/engine"
	"github.com/massive-csv/massivecsv/search"
)

// Editor owns a Reader and a mutable edit overlay.
type Editor struct {
	reader *engine.Reader
	edits  map[int][]string
}

// New wraps an already-open Reader.
func New(reader *engine.Reader) *Editor {
	return &Editor{reader: reader, edits: make(map[int][]string)}
}

// Open opens path for editing.
func Open(path string) (*Editor, error) {
	r, err := engine.Open(path)
	if err != nil {
		return nil, err
	}
	return New(r), nil
}

// Reader returns the underlying Reader. Callers must not mutate through it;
// it is exposed for read access (row/header/delimiter queries).
func (e *Editor) Reader() *engine.Reader {
	return e.reader
}

// EditCount returns the number of pending edits.
func (e *Editor) EditCount() int {
	return len(e.edits)
}

// HasChanges reports whether there are any unsaved edits.
func (e *Editor) HasChanges() bool {
	return len(e.edits) > 0
}

// GetRow returns the effective fields for row n: the overlay's fields if
// n has a pending edit, otherwise the Reader's decoded original.
func (e *Editor) GetRow(n int) ([]string, error) {
	if fields, ok := e.edits[n]; ok {
		return append([]string(nil), fields...), nil
	}
	return e.reader.GetRow(n)
}

// RowCount, GetRowRaw, Delimiter, and Headers make *Editor itself satisfy
// search.Rows. RowCount, Delimiter, and Headers delegate to the underlying
// Reader; GetRowRaw returns the re-encoded overlay fields for a row with a
// pending edit and the Reader's raw bytes otherwise, so both search's
// raw-byte prefilter and its decoding via Decoder see pending edits.
func (e *Editor) RowCount() int {
	return e.reader.RowCount()
}

func (e *Editor) GetRowRaw(n int) ([]byte, error) {
	if fields, ok := e.edits[n]; ok {
		return csvfmt.EncodeFields(fields, e.reader.Delimiter()), nil
	}
	return e.reader.GetRowRaw(n)
}

func (e *Editor) Delimiter() byte {
	return e.reader.Delimiter()
}

func (e *Editor) Headers() []string {
	return e.reader.Headers()
}

// Decoder returns a search.RowDecoder backed by this Editor's overlay, so
// a search run with it sees pending edits before they are saved. Wire it
// into search.Search alongside the Editor itself (which satisfies
// search.Rows via the delegating accessors above):
//
//	hits, err := search.Search(editor, editor.Decoder(), query, opts)
func (e *Editor) Decoder() search.RowDecoder {
	return e.GetRow
}

// SetCell replaces one field of row n and stores the full resulting row in
// the overlay. col is either a header name or a numeric index < C.
// Row and col both address the data-row ordinal space used throughout
// engine.Reader — row 0 is the first data row, not the header. The
// header has no ordinal in this space at all, so it is simply
// unreachable through SetCell/SetRow rather than specially rejected;
// Save always re-encodes the header from the Reader's Headers().
func (e *Editor) SetCell(row int, col string, value string) error {
	count := e.reader.RowCount()
	if row < 0 || row >= count {
		return csverr.Newf(csverr.OutOfRange, "row %d (file has %d rows)", row, count)
	}

	colIdx, err := e.reader.ResolveColumn(col)
	if err != nil {
		return err
	}

	fields, err := e.GetRow(row)
	if err != nil {
		return err
	}
	if colIdx >= len(fields) {
		return csverr.Newf(csverr.NoSuchColumn, "column index %d out of range", colIdx)
	}

	fields[colIdx] = value
	e.edits[row] = fields
	return nil
}

// SetRow replaces the whole row with fields, which must have exactly
// ColumnCount() entries.
func (e *Editor) SetRow(row int, fields []string) error {
	count := e.reader.RowCount()
	if row < 0 || row >= count {
		return csverr.Newf(csverr.OutOfRange, "row %d (file has %d rows)", row, count)
	}
	if len(fields) != e.reader.ColumnCount() {
		return csverr.Newf(csverr.WrongArity, "expected %d fields, got %d", e.reader.ColumnCount(), len(fields))
	}

	e.edits[row] = append([]string(nil), fields...)
	return nil
}

// RevertRow removes row from the overlay. Idempotent.
func (e *Editor) RevertRow(row int) {
	delete(e.edits, row)
}

// RevertAll clears the overlay.
func (e *Editor) RevertAll() {
	e.edits = make(map[int][]string)
}

// Save writes the effective contents (overlay applied over the original)
// to a temp file in the target's directory, fsyncs it, renames it into
// place, then reopens the Reader and clears the overlay. On any failure
// the overlay is preserved and the Reader remains valid against the
// untouched original.
func (e *Editor) Save() error {
	if len(e.edits) == 0 {
		return nil
	}

	path := e.reader.Path()
	dir := filepath.Dir(path)
	delimiter := e.reader.Delimiter()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return csverr.Wrap(csverr.Io, "create temp file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	headerLine := csvfmt.EncodeFields(e.reader.Headers(), delimiter)
	if _, err := tmp.Write(headerLine); err != nil {
		cleanup()
		return csverr.Wrap(csverr.Io, "write header", err)
	}
	if _, err := tmp.Write([]byte{'\n'}); err != nil {
		cleanup()
		return csverr.Wrap(csverr.Io, "write header newline", err)
	}

	rowCount := e.reader.RowCount()
	for n := 0; n < rowCount; n++ {
		if fields, ok := e.edits[n]; ok {
			line := csvfmt.EncodeFields(fields, delimiter)
			if _, err := tmp.Write(line); err != nil {
				cleanup()
				return csverr.Wrap(csverr.Io, "write edited row", err)
			}
			if _, err := tmp.Write([]byte{'\n'}); err != nil {
				cleanup()
				return csverr.Wrap(csverr.Io, "write row newline", err)
			}
			continue
		}

		raw, err := e.reader.GetRowVerbatim(n)
		if err != nil {
			cleanup()
			return err
		}
		if _, err := tmp.Write(raw); err != nil {
			cleanup()
			return csverr.Wrap(csverr.Io, "copy original row", err)
		}
		if _, err := tmp.Write([]byte{'\n'}); err != nil {
			cleanup()
			return csverr.Wrap(csverr.Io, "write row newline", err)
		}
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return csverr.Wrap(csverr.Io, "fsync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return csverr.Wrap(csverr.Io, "close temp file", err)
	}

	if err := renameInto(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return csverr.Wrap(csverr.Io, "rename into place", err)
	}

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	newReader, err := e.reader.Reopen()
	if err != nil {
		return err
	}
	if err := e.reader.Close(); err != nil {
		// The rename already succeeded and the new Reader is open; a
		// failure to unmap the stale mapping does not affect either.
		_ = err
	}
	e.reader = newReader
	e.edits = make(map[int][]string)

	return nil
}

// renameInto renames src over dst. A plain os.Rename already replaces dst
// atomically on the common case (src and dst share a filesystem, since
// src was created in dst's own directory); on the rare cross-filesystem
// rename (EXDEV) it falls back to copying the bytes onto dst's
// filesystem first. Either path ends in a same-device rename, so dst
// always references a valid file even if the process dies mid-sequence.
func renameInto(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if isCrossDevice(err) {
		return copyAcrossDeviceThenRename(src, dst)
	} else {
		return swapRename(src, dst)
	}
}

// copyAcrossDeviceThenRename copies src onto dst's filesystem as a new
// temp file, fsyncs it, then renames that copy over dst (now same-device)
// and removes the original cross-device src.
func copyAcrossDeviceThenRename(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	out, err := os.CreateTemp(dir, filepath.Base(dst)+".xdev-*")
	if err != nil {
		return err
	}
	tmpPath := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := swapRename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Remove(src)
	return nil
}

// swapRename backs up dst, moves src into place, then removes the backup.
// If renaming src into place fails, dst is restored from the backup so
// the target path always references a valid file.
func swapRename(src, dst string) error {
	backup := dst + ".bak-tmp"
	_ = os.Remove(backup)

	hadOriginal := true
	if err := os.Rename(dst, backup); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		hadOriginal = false
	}

	if err := os.Rename(src, dst); err != nil {
		if hadOriginal {
			_ = os.Rename(backup, dst)
		}
		return err
	}

	if hadOriginal {
		_ = os.Remove(backup)
	}
	return nil
}

// isCrossDevice reports whether err is the platform's "invalid
// cross-device link" rename failure (EXDEV on Unix).
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}
