package tableprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumberInsertsCommas(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "123", FormatNumber(123))
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "-1,000", FormatNumber(-1000))
}

func TestFormatSizeScalesUnits(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "1.0 MB", FormatSize(1024*1024))
	assert.Equal(t, "2.0 GB", FormatSize(2*1024*1024*1024))
}

func TestDelimiterName(t *testing.T) {
	assert.Equal(t, "comma", DelimiterName(','))
	assert.Equal(t, "tab", DelimiterName('\t'))
	assert.Equal(t, "semicolon", DelimiterName(';'))
	assert.Equal(t, "pipe", DelimiterName('|'))
	assert.Equal(t, "unknown", DelimiterName('#'))
}

func TestPrintEmptyHeadersNoOutput(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, nil, nil, nil)
	assert.Empty(t, buf.String())
}

func TestPrintRendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, []string{"name", "city"}, [][]string{{"Alice", "NYC"}, {"Bob", "LA"}}, []int{0, 1})
	out := buf.String()
	assert.True(t, strings.Contains(out, "name"))
	assert.True(t, strings.Contains(out, "Alice"))
	assert.True(t, strings.Contains(out, "Bob"))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4) // header, separator, 2 rows
}

func TestPrintTruncatesLongFields(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 50)
	Print(&buf, []string{"note"}, [][]string{{long}}, []int{0})
	out := buf.String()
	assert.True(t, strings.Contains(out, "..."))
	assert.False(t, strings.Contains(out, long))
}

func TestPrintUsesProvidedRowNumbers(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, []string{"v"}, [][]string{{"x"}, {"y"}}, []int{42, 99})
	out := buf.String()
	assert.True(t, strings.Contains(out, "42"))
	assert.True(t, strings.Contains(out, "99"))
}
