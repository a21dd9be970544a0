package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/core"
)

func newBatchCommand(op core.Operation, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *core.Service) error {
				return runBatch(ctx, cmd, svc, op, args[0])
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newBatchCommand(core.OpInsert, "Insert new root rows, with child rows from templates and Child.Column cells"),
		newBatchCommand(core.OpUpdate, "Update existing rows matched by the root key"),
		newBatchCommand(core.OpDelete, "Delete root rows by key and cascade to linked child rows"),
	)
}

func runBatch(ctx context.Context, cmd *cobra.Command, svc *core.Service, op core.Operation, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := batch.Read(filepath.Base(path), f)
	if err != nil {
		return err
	}

	res, err := svc.Apply(ctx, op, b)
	if res != nil {
		if printErr := printResult(stdout(cmd), res); printErr != nil {
			return printErr
		}
	}
	return err
}

func printResult(w io.Writer, res *core.Result) error {
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "batch %s: %s %s\n", res.BatchID, res.Operation, res.Source)
	fmt.Fprintf(w, "  supplied %d, applied %d, unchanged %d, skipped %d\n",
		res.Supplied, res.Applied, res.Unchanged, res.Skipped)
	for _, name := range res.ChildTables() {
		fmt.Fprintf(w, "  %s: %d child rows\n", name, res.ChildRows[name])
	}
	for _, tw := range res.Writes {
		line := fmt.Sprintf("  write %s (%d rows): %s", tw.Table, tw.Rows, tw.Status)
		if tw.Error != "" {
			line += ": " + tw.Error
		}
		fmt.Fprintln(w, line)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "  warnings:\n    %s\n", strings.Join(res.Warnings, "\n    "))
	}
	return nil
}
