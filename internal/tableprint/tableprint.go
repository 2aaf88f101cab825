// Package tableprint renders decoded rows as a fixed-width table and
// formats the byte/row-count figures shown by the info and search
// subcommands.
package tableprint

import (
	"fmt"
	"io"
	"strconv"
)

const maxColWidth = 40

// Print writes headers and rows as a formatted table to w. rowNumbers maps
// each entry in rows to the row ordinal it should be labeled with (the
// two slices have equal length); it lets search results be labeled with
// their original ordinal even though the result slice itself is dense.
func Print(w io.Writer, headers []string, rows [][]string, rowNumbers []int) {
	if len(headers) == 0 {
		return
	}
	numCols := len(headers)

	rowLabelWidth := 3
	for _, n := range rowNumbers {
		if l := len(FormatNumber(n)); l > rowLabelWidth {
			rowLabelWidth = l
		}
	}

	colWidths := make([]int, numCols)
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, field := range row {
			if i < numCols && len(field) > colWidths[i] {
				colWidths[i] = len(field)
			}
		}
	}
	for i, width := range colWidths {
		if width > maxColWidth {
			colWidths[i] = maxColWidth
		}
	}

	fmt.Fprintf(w, " %*s ", rowLabelWidth, "Row")
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, " | ")
		} else {
			fmt.Fprint(w, "| ")
		}
		fmt.Fprintf(w, "%-*s", colWidths[i], truncate(h, colWidths[i]))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "-%s-", repeat('-', rowLabelWidth))
	for i, width := range colWidths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		} else {
			fmt.Fprint(w, "+-")
		}
		fmt.Fprint(w, repeat('-', width))
	}
	fmt.Fprintln(w)

	for rowIdx, row := range rows {
		rowNum := rowIdx
		if rowIdx < len(rowNumbers) {
			rowNum = rowNumbers[rowIdx]
		}
		fmt.Fprintf(w, " %*s ", rowLabelWidth, FormatNumber(rowNum))
		for i := 0; i < numCols; i++ {
			if i > 0 {
				fmt.Fprint(w, " | ")
			} else {
				fmt.Fprint(w, "| ")
			}
			field := ""
			if i < len(row) {
				field = row[i]
			}
			fmt.Fprintf(w, "%-*s", colWidths[i], truncate(field, colWidths[i]))
		}
		fmt.Fprintln(w)
	}
}

// truncate shortens s to maxLen, appending "..." when it was cut short.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func repeat(b byte, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return string(out)
}

// FormatNumber inserts thousands separators, e.g. 1234567 -> "1,234,567".
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// FormatSize renders a byte count as a human-readable size, e.g. "487.3 MB".
func FormatSize(bytes int64) string {
	const (
		kb = 1024.0
		mb = kb * 1024.0
		gb = mb * 1024.0
	)

	b := float64(bytes)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", b/gb)
	case b >= mb:
		return fmt.Sprintf("%.1f MB", b/mb)
	case b >= kb:
		return fmt.Sprintf("%.1f KB", b/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// DelimiterName returns a human-readable name for a detected delimiter byte.
func DelimiterName(delim byte) string {
	switch delim {
	case ',':
		return "comma"
	case '\t':
		return "tab"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return "unknown"
	}
}
