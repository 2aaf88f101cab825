package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/massive-csv/massivecsv/edit"
	"github.com/massive-csv/massivecsv/internal/tableprint"
)

var (
	editRow   int
	editCol   string
	editValue string
)

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Edit a specific cell and save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(args[0], editRow, editCol, editValue)
	},
}

func init() {
	editCmd.Flags().IntVar(&editRow, "row", 0, "row ordinal to edit (0-indexed data row)")
	editCmd.Flags().StringVar(&editCol, "col", "", "column name or 0-indexed column number")
	editCmd.Flags().StringVar(&editValue, "value", "", "new value for the cell")
	_ = editCmd.MarkFlagRequired("col")
	_ = editCmd.MarkFlagRequired("value")
}

func runEdit(path string, row int, col, value string) error {
	e, err := edit.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = e.Reader().Close() }()

	colIdx, err := e.Reader().ResolveColumn(col)
	if err != nil {
		return err
	}
	colName := e.Reader().Headers()[colIdx]

	oldRow, err := e.Reader().GetRow(row)
	if err != nil {
		return err
	}
	oldValue := "<missing>"
	if colIdx < len(oldRow) {
		oldValue = oldRow[colIdx]
	}

	if err := e.SetCell(row, col, value); err != nil {
		return err
	}
	if err := e.Save(); err != nil {
		return err
	}

	fmt.Printf("Updated row %s, column %q: %q -> %q\n", tableprint.FormatNumber(row), colName, oldValue, value)
	fmt.Println("Saved.")
	return nil
}
