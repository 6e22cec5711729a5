package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janisto/portfolio-generator/internal/assemble"
)

func newGenerateCmd(_ *cli) *cobra.Command {
	var (
		file   string
		outDir string
		themed bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the generated site to a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(cmd.Context(), file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			var opts []assemble.Option
			if themed {
				opts = append(opts, assemble.WithThemedComponents())
			}
			files, err := assemble.Assemble(record, opts...)
			if err != nil {
				return err
			}
			if err := assemble.WriteDir(outDir, files); err != nil {
				return fmt.Errorf("write site: %w", err)
			}
			for _, p := range files.Paths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `profile file, or "-" for stdin`)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	cmd.Flags().BoolVar(&themed, "themed", false, "include theme provider, toggle and dotted background")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
