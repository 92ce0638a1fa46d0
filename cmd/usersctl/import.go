package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/store"
	_ "github.com/JonMunkholm/crudimport/internal/store/backends" // Register all store backends
)

type importOptions struct {
	strict bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import users from a .csv or .txt file into the configured store",
		Long: "Import users from a .csv or .txt file into the store selected by STORE_BACKEND\n" +
			"and DATABASE_URL. Rows without a name are skipped unless --strict is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first row without a name instead of skipping it")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts importOptions) error {
	ctx := cmd.Context()

	// Reject unsupported files before connecting to the store.
	if _, err := core.FormatForFile(path); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	users, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		users.Close(closeCtx)
	}()

	policy := core.SkipNameless
	if opts.strict {
		policy = core.RejectNameless
	}
	ingestor := core.NewIngestor(users, core.Normalizer{OnNameless: policy}, cfg.Upload.TempDir)

	if cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Upload.Timeout)
		defer cancel()
	}

	result, err := ingestor.Ingest(ctx, core.Upload{
		FileName: filepath.Base(path),
		Body:     f,
		Size:     info.Size(),
	})
	if err != nil {
		return fmt.Errorf("%s: %s", path, core.FormatUserError(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d users created successfully. (%d skipped, %s)\n",
		result.Inserted, result.Skipped, result.Duration.Round(time.Millisecond))
	return nil
}
