// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/asset-registrar/internal/record"
)

var showCmd = &cobra.Command{
	Use:   "show [uuid]",
	Short: "Show stored article records",
	Long: `Show lists the article records in the document store, most recently
updated first. With a UUID it prints that record in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("journal", "", "only list records of this journal acronym")
	showCmd.Flags().Bool("errors", false, "only list records whose last pass recorded errors")
	showCmd.Flags().String("format", "table", "record output: table, yaml or json")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := record.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")

	if len(args) == 1 {
		rec, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeRecord(out, rec, format)
	}

	journal, _ := cmd.Flags().GetString("journal")
	withErrors, _ := cmd.Flags().GetBool("errors")
	list, err := store.List(ctx, record.ListFilter{Journal: journal, WithErrors: withErrors})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No article records.")
		return nil
	}
	fmt.Fprintln(out, renderTable(
		[]string{"UUID", "PID", "Bucket", "Registered", "Failed", "Pending", "Errors", "Updated"},
		listRows(list),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func listRows(list []record.Summary) [][]string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.UUID, s.PID, s.Bucket,
			strconv.Itoa(s.Registered), strconv.Itoa(s.Failed), strconv.Itoa(s.Pending), strconv.Itoa(s.Errors),
			s.Updated.Local().Format(time.DateTime),
		})
	}
	return rows
}

func writeRecord(w io.Writer, rec record.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rec)
	case "table", "":
		rows := make([][]string, 0, len(rec.PDFs)+len(rec.HTMLs)+1)
		for _, l := range rec.PDFs {
			rows = append(rows, []string{l.Type, l.Language, l.URL})
		}
		for _, l := range rec.HTMLs {
			rows = append(rows, []string{l.Type, l.Language, l.URL})
		}
		if rec.XML != "" {
			rows = append(rows, []string{"xml", "", rec.XML})
		}
		for _, e := range rec.Errors {
			rows = append(rows, []string{"error", e.Label, e.Error()})
		}
		fmt.Fprintf(w, "%s  %s  (%s)\n", rec.UUID, rec.Bucket, rec.PID)
		fmt.Fprintln(w, renderTable([]string{"Type", "Language", "URL"}, rows, nil))
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
