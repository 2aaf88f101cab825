package edit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massive-csv/massivecsv/csverr"
	"github.com/massive-csv/massivecsv/search"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEditAndSave(t *testing.T) {
	path := writeTemp(t, "name,age\nAlice,30\nBob,25\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Reader().Close() }()

	assert.Equal(t, 0, e.EditCount())

	require.NoError(t, e.SetCell(0, "age", "31"))
	assert.Equal(t, 1, e.EditCount())
	assert.True(t, e.HasChanges())

	require.NoError(t, e.Save())
	assert.Equal(t, 0, e.EditCount())
	assert.False(t, e.HasChanges())

	row, err := e.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "31"}, row)

	row, err = e.GetRow(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "25"}, row)
}

func TestSetRowAndRevert(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n3,4\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	require.NoError(t, e.SetRow(0, []string{"x", "y"}))
	row, err := e.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, row)

	e.RevertRow(0)
	row, err = e.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, row)
	assert.False(t, e.HasChanges())
}

func TestSetRowOutOfRange(t *testing.T) {
	path := writeTemp(t, "h\n1\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	err = e.SetRow(99, []string{"x"})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.OutOfRange))
}

func TestSetRowWrongArity(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	err = e.SetRow(0, []string{"x"})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.WrongArity))
}

func TestSetCellColumnNotFound(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	err = e.SetCell(0, "nonexistent", "x")
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.NoSuchColumn))
}

func TestSaveNoChangesIsNoop(t *testing.T) {
	path := writeTemp(t, "h\n1\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Reader().Close() }()

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, e.Save())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestMultipleEditsSave(t *testing.T) {
	path := writeTemp(t, "x\na\nb\nc\nd\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Reader().Close() }()

	require.NoError(t, e.SetRow(0, []string{"A"}))
	require.NoError(t, e.SetRow(2, []string{"C"}))
	require.NoError(t, e.SetRow(3, []string{"D"}))

	require.NoError(t, e.Save())

	row, _ := e.GetRow(0)
	assert.Equal(t, []string{"A"}, row)
	row, _ = e.GetRow(1)
	assert.Equal(t, []string{"b"}, row)
	row, _ = e.GetRow(2)
	assert.Equal(t, []string{"C"}, row)
	row, _ = e.GetRow(3)
	assert.Equal(t, []string{"D"}, row)
}

func TestSaveRewritesFileOnDisk(t *testing.T) {
	path := writeTemp(t, "x\na\nb\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Reader().Close() }()

	require.NoError(t, e.SetRow(1, []string{"B"}))
	require.NoError(t, e.Save())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\na\nB\n", string(contents))
}

func TestSavePreservesCRLFOnUneditedRows(t *testing.T) {
	path := writeTemp(t, "name,age\r\nAlice,30\r\nBob,25\r\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Reader().Close() }()

	require.NoError(t, e.SetCell(0, "age", "31"))
	require.NoError(t, e.Save())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	// Row 0 was edited and is re-encoded without a "\r"; row 1 ("Bob,25")
	// was untouched and must be byte-copied verbatim, "\r" included.
	assert.Equal(t, "name,age\nAlice,31\nBob,25\r\n", string(contents))
}

func TestSearchSeesPendingOverlayEdit(t *testing.T) {
	path := writeTemp(t, "name,city\nAlice,NYC\nBob,LA\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	// Bob is not yet a NYC resident on disk.
	hits, err := search.Search(e, e.Decoder(), "NYC", search.Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rowNums(hits))

	require.NoError(t, e.SetCell(1, "city", "NYC"))

	hits, err = search.Search(e, e.Decoder(), "NYC", search.Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, rowNums(hits))

	// The on-disk file is still unedited; the pending overlay isn't saved.
	onDisk, err := search.Search(e.Reader(), search.DecodeFrom(e.Reader()), "NYC", search.Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rowNums(onDisk))
}

func rowNums(hits []search.Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.RowNum
	}
	return out
}

func TestOverlayReadThenRevertAllRestoresOriginal(t *testing.T) {
	path := writeTemp(t, "x\na\nb\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	require.NoError(t, e.SetRow(0, []string{"A"}))

	// No Save is attempted: the pending edit is served from the overlay,
	// and RevertAll brings back the on-disk first data row ("a"; "x" is
	// the header).
	row, err := e.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, row)

	e.RevertAll()
	assert.False(t, e.HasChanges())
	row, err = e.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, row)
}

func TestEditCountAfterRevertAll(t *testing.T) {
	path := writeTemp(t, "a\n1\n2\n3\n")

	e, err := Open(path)
	require.NoError(t, err)
	defer e.Reader().Close()

	require.NoError(t, e.SetRow(0, []string{"x"}))
	require.NoError(t, e.SetRow(1, []string{"y"}))
	assert.Equal(t, 2, e.EditCount())

	e.RevertAll()
	assert.Equal(t, 0, e.EditCount())
}
