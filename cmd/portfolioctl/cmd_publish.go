package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janisto/portfolio-generator/internal/config"
	publishsvc "github.com/janisto/portfolio-generator/internal/service/publish"
)

func newPublishCmd(c *cli) *cobra.Command {
	var (
		file   string
		repo   string
		token  string
		themed bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Commit the generated site to GitHub and request a deployment",
		Long: `publish commits the generated site to a repository under the token's
user, creating it when missing. The token comes from --token or GITHUB_TOKEN;
a Vercel deployment is requested when VERCEL_TOKEN is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configDir)
			if err != nil {
				return err
			}
			if token == "" {
				token = cfg.GitHub.Token
			}
			if token == "" {
				return errors.New("a GitHub token is required (--token or GITHUB_TOKEN)")
			}
			record, err := loadRecord(cmd.Context(), file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			res := c.newPublisher(cfg).Publish(cmd.Context(), publishsvc.Request{
				Record:         record,
				RepositoryName: repo,
				Token:          token,
				Themed:         themed,
			})
			if !res.Success() {
				return res.Err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message())
			fmt.Fprintf(out, "repository: %s\n", res.RepositoryURL)
			fmt.Fprintf(out, "commit:     %s\n", res.CommitSHA)
			if res.DeployURL != nil {
				fmt.Fprintf(out, "deployment: %s\n", *res.DeployURL)
			}
			if res.Note != "" {
				fmt.Fprintf(out, "note:       %s\n", res.Note)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `profile file, or "-" for stdin`)
	cmd.Flags().StringVar(&repo, "repo", "", "target repository name")
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&themed, "themed", false, "include theme provider, toggle and dotted background")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
