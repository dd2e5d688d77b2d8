package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/votesheet/internal/export"
	"github.com/spf13/cobra"
)

const exportFilePermission = 0o644

func newExportCmd() *cobra.Command {
	var (
		out    string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export <votes-file>",
		Short: "Write a votes file as the CSV results export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := export.Write(&buf, snap); err != nil {
				return err
			}

			switch {
			case out == "-":
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			case out == "":
				out = filepath.Join(outDir, export.FileName(time.Now()))
			}
			if err := os.WriteFile(out, buf.Bytes(), exportFilePermission); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", `Output file, "-" for stdout (default: voting_results_YYYY-MM-DD.csv)`)
	cmd.Flags().StringVar(&outDir, "dir", ".", "Directory for the default output file name")
	return cmd
}
