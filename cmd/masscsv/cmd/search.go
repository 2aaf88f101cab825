package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/massive-csv/massivecsv/engine"
	"github.com/massive-csv/massivecsv/internal/tableprint"
	"github.com/massive-csv/massivecsv/search"
)

var (
	searchColumn     string
	searchIgnoreCase bool
	searchMaxResults int
)

var searchCmd = &cobra.Command{
	Use:   "search FILE QUERY",
	Short: "Search for rows matching a query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0], args[1])
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchColumn, "column", "c", "", "restrict search to a specific column (name or index)")
	searchCmd.Flags().BoolVarP(&searchIgnoreCase, "ignore-case", "i", false, "case-insensitive matching")
	searchCmd.Flags().IntVarP(&searchMaxResults, "max-results", "n", 100, "maximum number of results")
}

func runSearch(path, query string) error {
	r, err := engine.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	opts := search.Options{
		Column:        searchColumn,
		CaseSensitive: !searchIgnoreCase,
		MaxResults:    searchMaxResults,
	}

	start := time.Now()
	hits, err := search.Search(r, search.DecodeFrom(r), query, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	plural := "es"
	if len(hits) == 1 {
		plural = ""
	}
	fmt.Printf("Found %s match%s (searched %s rows in %s):\n\n",
		tableprint.FormatNumber(len(hits)), plural,
		tableprint.FormatNumber(r.RowCount()), elapsed.Round(time.Microsecond))

	if len(hits) == 0 {
		return nil
	}

	rows := make([][]string, len(hits))
	rowNumbers := make([]int, len(hits))
	for i, h := range hits {
		rows[i] = h.Fields
		rowNumbers[i] = h.RowNum
	}

	tableprint.Print(os.Stdout, r.Headers(), rows, rowNumbers)
	return nil
}
