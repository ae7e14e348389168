package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dprint/plugins/internal/github"
	"github.com/dprint/plugins/pkg/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

const defaultRegistryURL = "https://plugins.dprint.dev"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)

	cmd := &cobra.Command{
		Use:     "plugins-resolve",
		Short:   "Query a dprint plugins registry",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringP("registry-url", "r", defaultRegistryURL, "the plugins registry URL")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "latest <owner>/<repo>",
			Short: "Print the latest.json of a plugin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, repo, err := splitOwnerRepo(args[0])
				if err != nil {
					return err
				}
				return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
					return c.GetLatest(ctx, owner, repo)
				})
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print the plugin list of the registry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
					return c.GetInfo(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "cli",
			Short: "Print the latest dprint CLI version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
					return c.GetCLIInfo(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "resolve <path>",
			Short: "Print the upstream url a plugin path redirects to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
					return c.Resolve(ctx, "/"+strings.TrimPrefix(args[0], "/"))
				})
			},
		},
		newDownloadsCommand(log),
	)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func splitOwnerRepo(s string) (string, string, error) {
	owner, repo, found := strings.Cut(s, "/")
	if !found || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid plugin %q, expected <owner>/<repo>", s)
	}
	return owner, repo, nil
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) (any, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registryURL := must(cmd.Flags().GetString("registry-url"))
	res, err := fn(ctx, client.New(registryURL))
	if err != nil {
		return err
	}
	if s, ok := res.(string); ok {
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func newDownloadsCommand(log *logrus.Logger) *cobra.Command {
	downloadsCmd := &cobra.Command{
		Use:   "downloads <owner>/<repo>",
		Short: "Print the total plugin downloads of a GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitOwnerRepo(args[0])
			if err != nil {
				return err
			}
			ghClient, err := github.NewClient(github.Config{
				Token: must(cmd.Flags().GetString("github-token")),
				Log:   log,
			})
			if err != nil {
				return err
			}
			count, err := ghClient.AllDownloadCount(cmd.Context(), owner, repo)
			if err != nil {
				return err
			}
			if count == 0 && !ghClient.RepoExists(cmd.Context(), owner, repo) {
				return errors.New("repository not found")
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
	downloadsCmd.Flags().String("github-token", os.Getenv("DPRINT_PLUGINS_GH_TOKEN"), "GitHub token")
	return downloadsCmd
}
