// Command portfolioctl validates profile files, generates the portfolio site
// locally and publishes it to GitHub without running the HTTP server.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/portfolio-generator/internal/config"
	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/service/deploy"
	githubsvc "github.com/janisto/portfolio-generator/internal/service/github"
	publishsvc "github.com/janisto/portfolio-generator/internal/service/publish"
)

// cli carries global flags and the publisher constructor, which tests replace.
type cli struct {
	configDir string
	verbose   bool
	logger    *zap.Logger

	newPublisher func(cfg *config.Config) publishsvc.Service
}

func main() {
	if err := newRootCmd(&cli{newPublisher: defaultPublisher}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "Build and publish portfolio sites from profile files",
		Long: `portfolioctl reads a profile form (YAML or JSON), validates it with the
same rules as the API, and either writes the generated Next.js site to disk
or commits it to a GitHub repository.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := zapcore.WarnLevel
			if c.verbose {
				level = zapcore.DebugLevel
			}
			cfg := zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(level)
			cfg.OutputPaths = []string{"stderr"}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			cmd.SetContext(applog.WithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "", "directory holding .env and config.yaml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(newValidateCmd(c), newGenerateCmd(c), newPublishCmd(c))
	return root
}

func defaultPublisher(cfg *config.Config) publishsvc.Service {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	var clients githubsvc.ClientFactory
	if cfg.GitHub.Mock {
		clients = githubsvc.NewMockGitHubService().Factory()
	} else {
		clients = githubsvc.NewClientFactory(httpClient, githubsvc.WithBaseURL(cfg.GitHub.BaseURL))
	}
	opts := []publishsvc.Option{publishsvc.WithBlobConcurrency(cfg.Publish.BlobConcurrency)}
	if cfg.Deploy.VercelToken != "" {
		opts = append(opts, publishsvc.WithDeployer(deploy.NewVercelClient(httpClient,
			deploy.WithBaseURL(cfg.Deploy.BaseURL),
			deploy.WithToken(cfg.Deploy.VercelToken),
		)))
	}
	return publishsvc.NewPublisher(clients, opts...)
}
