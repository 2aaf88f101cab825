package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/massive-csv/massivecsv/csverr"
	"github.com/massive-csv/massivecsv/engine"
	"github.com/massive-csv/massivecsv/internal/tableprint"
)

var viewRowsArg string

var viewCmd = &cobra.Command{
	Use:   "view FILE",
	Short: "View rows from a file as a formatted table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(args[0], viewRowsArg)
	},
}

func init() {
	viewCmd.Flags().StringVarP(&viewRowsArg, "rows", "r", "", `row range, e.g. "100-200" or "100" (default: first 20 rows)`)
}

func runView(path, rowsArg string) error {
	r, err := engine.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	rowCount := r.RowCount()
	start, end, err := parseRowRange(rowsArg, rowCount)
	if err != nil {
		return newArgError(err)
	}

	if start >= rowCount {
		return csverr.Newf(csverr.OutOfRange, "row %d is out of range (file has %d rows)", start, rowCount)
	}

	rows, err := r.GetRows(start, end)
	if err != nil {
		return err
	}

	rowNumbers := make([]int, len(rows))
	for i := range rows {
		rowNumbers[i] = start + i
	}

	tableprint.Print(os.Stdout, r.Headers(), rows, rowNumbers)
	return nil
}

// parseRowRange parses a "start-end" or "n" range string into a half-open
// [start, end) interval clamped to rowCount. A bare "n" views just that
// row (mirroring the range's inclusive-end convention: "100-200" includes
// row 200). No argument views the first 20 rows.
func parseRowRange(arg string, rowCount int) (int, int, error) {
	if arg == "" {
		end := 20
		if end > rowCount {
			end = rowCount
		}
		return 0, end, nil
	}

	if left, right, ok := strings.Cut(arg, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(left))
		if err != nil {
			return 0, 0, err
		}
		endInclusive, err := strconv.Atoi(strings.TrimSpace(right))
		if err != nil {
			return 0, 0, err
		}
		end := endInclusive + 1
		if end > rowCount {
			end = rowCount
		}
		return start, end, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, 0, err
	}
	end := n + 1
	if end > rowCount {
		end = rowCount
	}
	return n, end, nil
}
