// Package engine holds the memory-mapped CSV reader: the line index, the
// detected delimiter, the cached headers, and O(1) ordinal row access.
// A Reader is immutable for its lifetime once Open returns, so multiple
// goroutines may call GetRow, GetRows, and anything built on top of it
// (search.Search) concurrently without synchronization — mirroring the
// teacher's read-only, lock-free segment files opened O_RDONLY.
package engine

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/massive-csv/massivecsv/csverr"
	"github.com/massive-csv/massivecsv/csvfmt"
)

// Reader is a memory-mapped, read-only view of one CSV file plus the
// byte-offset line index built over it at open time.
type Reader struct {
	data      mmap.MMap
	file      *os.File
	lineIndex []int64 // lineIndex[i] = first byte of data row i; the header line has no entry and there is no end-of-file sentinel
	headers   []string
	delimiter byte
	path      string
}

// OpenOptions controls the bounded prefix sampled for delimiter detection.
// The zero value uses spec defaults (64 KiB / 100 lines). A positive
// SampleBytes caps the prefix handed to csvfmt.DetectDelimiter, which
// itself never looks past DefaultSampleBytes or DefaultSampleLines, so
// larger values have no effect. SampleLines is not consulted.
type OpenOptions struct {
	SampleBytes int
	SampleLines int
}

// Open maps path read-only, builds the line index by scanning the whole
// mapping for '\n' bytes, detects the delimiter from a bounded prefix, and
// decodes row 0 into headers.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, OpenOptions{})
}

// OpenWithOptions is Open with an explicit sampling window.
func OpenWithOptions(path string, opts OpenOptions) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, csverr.Newf(csverr.NotFound, "open %s", path)
		}
		return nil, csverr.Wrap(csverr.Io, "stat "+path, err)
	}
	if info.IsDir() {
		return nil, csverr.Newf(csverr.NotFound, "%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return nil, csverr.New(csverr.Empty, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, csverr.Wrap(csverr.Io, "open "+path, err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, csverr.Wrap(csverr.Io, "mmap "+path, err)
	}

	sampleBytes := opts.SampleBytes
	if sampleBytes <= 0 {
		sampleBytes = csvfmt.DefaultSampleBytes
	}
	prefixEnd := len(m)
	if prefixEnd > sampleBytes {
		prefixEnd = sampleBytes
	}
	delimiter := csvfmt.DetectDelimiter(m[:prefixEnd])

	headerEnd := indexOf(m, '\n')
	var headerLine []byte
	if headerEnd == -1 {
		headerLine = m
	} else {
		headerLine = m[:headerEnd]
	}
	headerLine = stripLineEnding(headerLine)
	if len(headerLine) == 0 {
		_ = m.Unmap()
		_ = f.Close()
		return nil, csverr.New(csverr.NoHeader, path)
	}
	headers := csvfmt.DecodeLine(headerLine, delimiter)

	dataStart := headerEnd + 1
	if headerEnd == -1 {
		dataStart = len(m)
	}
	lineIndex := buildLineIndex(m, dataStart)

	r := &Reader{
		data:      m,
		file:      f,
		lineIndex: lineIndex,
		headers:   headers,
		delimiter: delimiter,
		path:      path,
	}
	return r, nil
}

// buildLineIndex records the byte offset of the first byte of every data
// row starting at dataStart (the byte right after the header line). The
// index is lexical: it does not understand quoted newlines inside fields
// (see the design notes on the line index's known trade-off).
func buildLineIndex(data mmap.MMap, dataStart int) []int64 {
	if dataStart >= len(data) {
		return nil
	}

	index := []int64{int64(dataStart)}
	for pos := dataStart; pos < len(data); pos++ {
		if data[pos] == '\n' && pos+1 < len(data) {
			index = append(index, int64(pos+1))
		}
	}

	// The loop never records an offset equal to the file length, so a
	// trailing newline adds no empty row. A final line that is empty or
	// whitespace-only (e.g. a blank line at end of file) is not counted as
	// a row either: its entry is dropped here.
	last := int(index[len(index)-1])
	if last >= len(data) || isAllWhitespace(stripLineEnding(data[last:])) {
		index = index[:len(index)-1]
	}

	return index
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return false
		}
	}
	return true
}

func indexOf(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}

func stripLineEnding(b []byte) []byte {
	return stripTrailingCR(stripTrailingNewline(b))
}

func stripTrailingNewline(b []byte) []byte {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
	}
	return b[:n]
}

func stripTrailingCR(b []byte) []byte {
	n := len(b)
	if n > 0 && b[n-1] == '\r' {
		n--
	}
	return b[:n]
}

// RowCount returns the number of data rows, excluding the header.
func (r *Reader) RowCount() int {
	return len(r.lineIndex)
}

// Headers returns the cached header field vector.
func (r *Reader) Headers() []string {
	return r.headers
}

// Delimiter returns the detected delimiter byte.
func (r *Reader) Delimiter() byte {
	return r.delimiter
}

// Path returns the file path this Reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// lineBytes returns the raw bytes of data row n as they sit in the
// mapping, including whatever line ending (bare "\n" or "\r\n") follows
// the row. A zero-copy slice, only valid for the lifetime of this Reader.
func (r *Reader) lineBytes(n int) ([]byte, error) {
	count := r.RowCount()
	if n < 0 || n >= count {
		return nil, csverr.Newf(csverr.OutOfRange, "row %d (file has %d rows)", n, count)
	}

	start := int(r.lineIndex[n])
	var end int
	if n+1 < count {
		end = int(r.lineIndex[n+1])
	} else {
		end = len(r.data)
		// A dropped trailing blank line must not leak into the last row.
		if i := indexOf(r.data[start:end], '\n'); i >= 0 {
			end = start + i + 1
		}
	}

	return r.data[start:end], nil
}

// GetRowRaw returns the \r?\n-stripped bytes of data row n, for decoding.
func (r *Reader) GetRowRaw(n int) ([]byte, error) {
	line, err := r.lineBytes(n)
	if err != nil {
		return nil, err
	}
	return stripLineEnding(line), nil
}

// GetRowVerbatim returns data row n with only its trailing "\n" stripped,
// preserving a preceding "\r" if the row was CRLF-terminated. Editor.Save
// uses this instead of GetRowRaw to byte-copy unedited rows, including
// their original "\r", rather than the decode-oriented \r?\n-stripped form.
func (r *Reader) GetRowVerbatim(n int) ([]byte, error) {
	line, err := r.lineBytes(n)
	if err != nil {
		return nil, err
	}
	return stripTrailingNewline(line), nil
}

// GetRow decodes data row n into fields.
func (r *Reader) GetRow(n int) ([]string, error) {
	raw, err := r.GetRowRaw(n)
	if err != nil {
		return nil, err
	}
	return csvfmt.DecodeLine(raw, r.delimiter), nil
}

// GetRows decodes the half-open range [start, end), clamped into
// [0, RowCount()]. end < start is an error.
func (r *Reader) GetRows(start, end int) ([][]string, error) {
	count := r.RowCount()
	if end < start {
		return nil, csverr.Newf(csverr.OutOfRange, "end %d is before start %d", end, start)
	}
	if start < 0 {
		start = 0
	}
	if end > count {
		end = count
	}
	if start > end {
		start = end
	}

	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		row, err := r.GetRow(i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ResolveColumn resolves a column spec that is either a header name or a
// 0-based numeric index, trying the name first (matching the CLI's
// NAME_OR_INDEX convention for --column/--col).
func (r *Reader) ResolveColumn(spec string) (int, error) {
	for i, h := range r.headers {
		if h == spec {
			return i, nil
		}
	}
	if idx, ok := parseUint(spec); ok && idx < len(r.headers) {
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

// Close unmaps the file and releases its descriptor. A Reader must not be
// used after Close.
func (r *Reader) Close() error {
	if err := r.data.Unmap(); err != nil {
		return csverr.Wrap(csverr.Io, "unmap "+r.path, err)
	}
	if err := r.file.Close(); err != nil {
		return csverr.Wrap(csverr.Io, "close "+r.path, err)
	}
	return nil
}

// Reopen builds a fresh Reader against the same path's current contents,
// used by edit.Editor after a successful Save to pick up the rewritten
// file and rebuild the line index.
func (r *Reader) Reopen() (*Reader, error) {
	return Open(r.path)
}

// ColumnCount returns the fixed column count C established at open time.
func (r *Reader) ColumnCount() int {
	return len(r.headers)
}
