package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/internal/output"
	queryservice "github.com/aharper/filesearch/internal/query"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <term>",
		Short: "Run a one-shot search against an existing index",
		Long: `Send a single search term through the Query Service against an
already-built index. This is a smoke-testing shim standing in for the
GUI's search box.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "))
		},
	}
	return cmd
}

func runQuery(cmd *cobra.Command, term string) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(cmd.Context(), rootFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	requests := make(chan queryservice.Request)
	results := make(chan queryservice.Result, 1)
	svc, err := queryservice.New(queryservice.Dependencies{
		Index:     a.index,
		RequestRx: requests,
		ResultTx:  results,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc.Start(ctx)

	select {
	case requests <- queryservice.Request{Query: term}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case res := <-results:
		if len(res.Entries) == 0 {
			out.Status("--", "no matches")
			return nil
		}
		for _, e := range res.Entries {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", e.Path, e.Kind, e.Size)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
