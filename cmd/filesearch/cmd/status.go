package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/internal/output"
)

// statusInfo is the JSON-serializable shape of `filesearch status`.
type statusInfo struct {
	Root         string `json:"root"`
	DataDir      string `json:"data_dir"`
	Indexed      bool   `json:"indexed"`
	IndexedFiles int64  `json:"indexed_files"`
	NumDocs      uint64 `json:"num_docs"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show index health and status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootFlag
			if len(args) > 0 {
				path = args[0]
			}
			return runStatus(cmd, path, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, path string, jsonOutput bool) error {
	a, err := openApp(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer a.Close()

	indexed, err := a.state.IsIndexed()
	if err != nil {
		return err
	}
	indexedFiles, err := a.state.IndexedFiles()
	if err != nil {
		return err
	}
	numDocs, err := a.index.NumDocs()
	if err != nil {
		return err
	}

	info := statusInfo{
		Root:         a.root,
		DataDir:      a.dataDir,
		Indexed:      indexed,
		IndexedFiles: indexedFiles,
		NumDocs:      numDocs,
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := output.New(cmd.OutOrStdout())
	out.Status("", fmt.Sprintf("root: %s", info.Root))
	out.Status("", fmt.Sprintf("data dir: %s", info.DataDir))
	out.Status("", fmt.Sprintf("indexed: %v", info.Indexed))
	out.Status("", fmt.Sprintf("indexed files: %d", info.IndexedFiles))
	out.Status("", fmt.Sprintf("documents in index: %d", info.NumDocs))
	return nil
}
