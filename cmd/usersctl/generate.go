package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crudimport/internal/gen"
)

type generateOptions struct {
	out  string
	rows int
	seed uint64
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic employees CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "empleados.csv", "Output file; - writes to stdout")
	cmd.Flags().IntVar(&opts.rows, "rows", gen.DefaultRows, "Number of employees")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed for reproducible output (0 = random)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	if opts.rows <= 0 {
		return fmt.Errorf("invalid --rows %d: must be positive", opts.rows)
	}

	if opts.out == "-" {
		_, err := gen.WriteEmployees(cmd.OutOrStdout(), gen.Options{Rows: opts.rows, Seed: opts.seed})
		return err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}

	n, err := gen.WriteEmployees(f, gen.Options{Rows: opts.rows, Seed: opts.seed})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("generate %s: %w", opts.out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s generated (%d rows)\n", opts.out, n)
	return nil
}
