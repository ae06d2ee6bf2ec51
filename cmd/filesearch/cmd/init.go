package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/configs"
	"github.com/aharper/filesearch/internal/config"
	"github.com/aharper/filesearch/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter .filesearch.yaml into a project root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .filesearch.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dest := filepath.Join(root, config.FileName)
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", dest)
		}
	}

	if err := os.WriteFile(dest, []byte(configs.ConfigTemplate), 0644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	out.Success(fmt.Sprintf("wrote %s", dest))
	return nil
}
