package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crudimport/internal/core"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Stream a .csv or .txt file and log every parsed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args[0])
		},
	}
}

func runDump(cmd *cobra.Command, path string) error {
	format, err := core.FormatForFile(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := core.Parse(f, format)
	if err != nil {
		return err
	}

	count := 0
	for rec, err := range records {
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		count++

		attrs := []any{"line", rec.Line()}
		for _, field := range rec.Fields() {
			attrs = append(attrs, field.Name, field.Value)
		}
		slog.Info("record", attrs...)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s processed: %d records\n", path, count)
	return nil
}
