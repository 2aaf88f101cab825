package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/massive-csv/massivecsv/engine"
	"github.com/massive-csv/massivecsv/internal/tableprint"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show file metadata: row count, columns, size, delimiter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

func runInfo(path string) error {
	start := time.Now()
	r, err := engine.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	elapsed := time.Since(start)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	headers := r.Headers()
	headerDisplay := strings.Join(headers, ", ")
	if len(headers) > 10 {
		headerDisplay = fmt.Sprintf("%s, ... (+%d more)", strings.Join(headers[:10], ", "), len(headers)-10)
	}

	slog.Debug("opened file", "path", path, "elapsed", elapsed)

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Size:       %s\n", tableprint.FormatSize(info.Size()))
	fmt.Printf("Rows:       %s\n", tableprint.FormatNumber(r.RowCount()))
	fmt.Printf("Columns:    %d\n", len(headers))
	fmt.Printf("Delimiter:  %s\n", tableprint.DelimiterName(r.Delimiter()))
	fmt.Printf("Headers:    %s\n", headerDisplay)
	fmt.Printf("Load time:  %s\n", elapsed.Round(time.Microsecond))

	return nil
}
