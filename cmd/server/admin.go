package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/htmlflow/internal/admin"
	"github.com/serroba/htmlflow/internal/container"
	"github.com/serroba/htmlflow/internal/session"
	usagestore "github.com/serroba/htmlflow/internal/usage/store"
	"github.com/spf13/cobra"
)

var errFlushNotConfirmed = errors.New("refusing to flush without --yes (use --dry-run to count keys)")

// withSession runs fn with an initialized store session and tears it down afterwards.
func withSession(ctx context.Context, options *container.Options, fn func(context.Context, *session.Manager) error) error {
	injector := do.New()
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)

	defer func() { _ = injector.Shutdown() }()

	manager := do.MustInvoke[*session.Manager](injector)

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	if err := manager.Initialize(initCtx); err != nil {
		return err
	}

	return fn(ctx, manager)
}

func addAdminCommands(root *cobra.Command) {
	root.AddCommand(pingCommand(), flushCommand(), sshCommand(), usageCommand())
}

func pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the counter store",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *container.Options) {
			exitOnError(withSession(cmd.Context(), options, func(ctx context.Context, m *session.Manager) error {
				client, err := m.Client()
				if err != nil {
					return err
				}

				return admin.Ping(ctx, client, cmd.OutOrStdout())
			}))
		}),
	}
}

func flushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Delete all stored quota records",
		Long: "Deletes every rate_limit:* key so all callers start the day over. " +
			"With --all the entire Redis instance is flushed, including the quota.decision " +
			"stream and its quota-ledger consumer group; restart the consumer afterwards so it " +
			"recreates the group.",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *container.Options) {
			yes, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			all, _ := cmd.Flags().GetBool("all")

			if !yes && !dryRun {
				exitOnError(errFlushNotConfirmed)
			}

			exitOnError(withSession(cmd.Context(), options, func(ctx context.Context, m *session.Manager) error {
				client, err := m.Client()
				if err != nil {
					return err
				}

				if all && !dryRun {
					if err := admin.FlushAll(ctx, client); err != nil {
						return err
					}

					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Redis cache flushed.")

					return err
				}

				n, err := admin.FlushQuotas(ctx, client, dryRun)
				if err != nil {
					return err
				}

				verb := "deleted"
				if dryRun {
					verb = "would delete"
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d quota records\n", verb, n)

				return err
			}))
		}),
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion")
	cmd.Flags().Bool("dry-run", false, "Only count matching keys")
	cmd.Flags().Bool("all", false, "Flush every key in the instance (FLUSHALL), event stream included")

	return cmd
}

func sshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh",
		Short: "Open an SSH session to the store host",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *container.Options) {
			ssh, err := admin.SSHCommand(cmd.Context(), options.StoreSSHUser, options.StoreHost)
			exitOnError(err)
			exitOnError(ssh.Run())
		}),
	}
}

func usageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage <caller>",
		Short: "Show recorded quota decisions for a caller",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, options *container.Options) {
			days, _ := cmd.Flags().GetInt("days")

			injector := do.New()
			do.ProvideValue(injector, options)
			container.PostgresPackage(injector)

			defer func() { _ = injector.Shutdown() }()

			ledger, err := do.Invoke[*usagestore.Postgres](injector)
			exitOnError(err)

			since := admin.UsageSince(time.Now(), days)
			exitOnError(admin.PrintUsage(cmd.Context(), ledger, args[0], since, cmd.OutOrStdout()))
		}),
	}

	cmd.Flags().Int("days", 7, "Number of days to report")

	return cmd
}
