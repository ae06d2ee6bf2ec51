package cmd

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/internal/preflight"
)

var errDoctorFailed = errors.New("system check failed")

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Run pre-flight system checks without building the index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootFlag
			if len(args) > 0 {
				path = args[0]
			}
			root, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			checker := preflight.New(preflight.WithOutput(cmd.OutOrStdout()), preflight.WithVerbose(true))
			results := checker.RunAll(cmd.Context(), root)
			checker.PrintResults(results)
			if checker.HasCriticalFailures(results) {
				return errDoctorFailed
			}
			return nil
		},
	}
	return cmd
}
