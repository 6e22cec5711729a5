package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janisto/portfolio-generator/internal/portfolio"
)

func newValidateCmd(_ *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a profile file against the form rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(cmd.Context(), file, cmd.InOrStdin())
			if err != nil {
				var verr *portfolio.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Path, f.Message)
					}
					return fmt.Errorf("%d invalid field(s)", len(verr.Fields))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%s theme, %d skills)\n",
				record.FullName, portfolio.ThemeName(record.ThemeColor), len(record.Skills))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `profile file, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
