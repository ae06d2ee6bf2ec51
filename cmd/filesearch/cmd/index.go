package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/internal/apperrors"
	"github.com/aharper/filesearch/internal/output"
	"github.com/aharper/filesearch/internal/state"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or rebuild the file-name index",
		Long: `Walk the target directory tree and build the Index Store.

By default this is a no-op when the index is already fresh and current.
Use --force to rebuild unconditionally.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootFlag
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if the index is fresh")

	return cmd
}

func runIndex(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer a.Close()

	if force {
		if err := a.state.Set(state.KeyRefresh, "true"); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
		}
	}

	ix, err := a.buildIndexer()
	if err != nil {
		return err
	}

	out.Status("...", fmt.Sprintf("indexing %s", a.root))
	if err := ix.InitIndex(cmd.Context()); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err)
	}
	a.index = ix.Index()

	n, err := a.state.IndexedFiles()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	out.Success(fmt.Sprintf("indexed %d files into %s", n, a.dataDir))
	return nil
}
