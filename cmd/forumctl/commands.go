package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dan9191/community-forum/internal/config"
	"github.com/Dan9191/community-forum/internal/repository"
	"github.com/Dan9191/community-forum/internal/service"
	"github.com/Dan9191/community-forum/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Operator tools for the community forum",
		SilenceUsage:  true,
	}
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	}

	root.AddCommand(
		newAdminTokenCmd(),
		newSyncPostsCmd(logger),
		newHashPassphraseCmd(),
	)
	return root
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Print a bearer token accepted by admin routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.GeneratedSecret {
				return fmt.Errorf("JWT_SECRET or SESSION_SECRET must be set to issue tokens the server accepts")
			}
			token, err := utils.IssueAdminToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "forumctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func newSyncPostsCmd(logger *logrus.Logger) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync-posts",
		Short: "Rewrite every post keyed on its own id and set postId",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			repo, err := repository.Open(ctx, cfg.DatabaseURL, cfg.DBName, cfg.DBTimeout)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer repo.Close(context.Background())

			return syncPosts(ctx, service.NewService(repo, logger), cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")
	return cmd
}

func syncPosts(ctx context.Context, svc *service.Service, out io.Writer) error {
	report, err := svc.SyncPosts(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func newHashPassphraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passphrase",
		Short: "Read a passphrase from stdin and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hashPassphrase(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func hashPassphrase(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	passphrase := strings.TrimRight(line, "\r\n")
	if passphrase == "" {
		return fmt.Errorf("empty passphrase")
	}
	hashed, err := service.HashPassphrase(passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hashed)
	return nil
}
