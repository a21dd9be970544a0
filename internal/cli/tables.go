package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/csvio"
)

var exportOut string

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the root table and its linked child tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			tables := svc.Tables()
			if opts.json {
				enc := json.NewEncoder(stdout(cmd))
				enc.SetIndent("", "  ")
				return enc.Encode(tables)
			}

			tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tROWS\tKEY\tLINK\tCOLUMNS")
			for _, t := range tables {
				link := "root"
				if !t.Root {
					link = t.ForeignKey + " (" + t.FKColumn + ")"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", t.Name, t.Rows, t.PrimaryKey, link, strings.Join(t.Columns, ","))
			}
			return tw.Flush()
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export TABLE",
	Short: "Write a table as CSV to stdout or --out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			t, err := svc.Table(args[0])
			if err != nil {
				return err
			}
			if exportOut == "" {
				return csvio.WriteRecords(stdout(cmd), t.Records(), false)
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			if err := csvio.WriteRecords(f, t.Records(), true); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (written with a byte-order mark)")
}
