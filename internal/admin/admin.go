// Package admin implements the maintenance commands of the server binary.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/htmlflow/internal/ratelimit"
	usagestore "github.com/serroba/htmlflow/internal/usage/store"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// ErrNoStoreHost is returned by SSHCommand when no host is configured.
var ErrNoStoreHost = errors.New("store host not configured")

// Client is the subset of Redis commands the maintenance tasks use.
// *redis.Client satisfies it.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
}

// Ping checks the store connection and prints the reply.
func Ping(ctx context.Context, client Client, w io.Writer) error {
	reply, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	_, err = fmt.Fprintf(w, "PING: %s\n", reply)

	return err
}

// FlushQuotas deletes every quota record and returns how many keys matched.
// With dryRun the keys are only counted.
func FlushQuotas(ctx context.Context, client Client, dryRun bool) (int, error) {
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := client.Scan(ctx, cursor, ratelimit.KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return total, fmt.Errorf("scan: %w", err)
		}

		if len(keys) > 0 && !dryRun {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return total, fmt.Errorf("del: %w", err)
			}
		}

		total += len(keys)

		if next == 0 {
			return total, nil
		}

		cursor = next
	}
}

// FlushAll removes every key from every database of the store.
func FlushAll(ctx context.Context, client Client) error {
	if err := client.FlushAll(ctx).Err(); err != nil {
		return fmt.Errorf("flushall: %w", err)
	}

	return nil
}

// SSHCommand builds an interactive ssh session to the store host with the
// current terminal attached.
func SSHCommand(ctx context.Context, user, host string) (*exec.Cmd, error) {
	if host == "" {
		return nil, ErrNoStoreHost
	}

	target := host
	if user != "" {
		target = user + "@" + host
	}

	cmd := exec.CommandContext(ctx, "ssh", target)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

// UsageSince returns the Pacific midnight that opens a report of the last
// days calendar days, today included. days below 1 reports today only.
func UsageSince(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}

	y, m, d := now.In(ratelimit.ReferenceZone()).Date()

	return time.Date(y, m, d-(days-1), 0, 0, 0, 0, ratelimit.ReferenceZone())
}

// UsageReader reads aggregated quota decisions from the usage ledger.
type UsageReader interface {
	DailyCounts(ctx context.Context, callerID string, since time.Time) ([]usagestore.DailyCount, error)
}

// PrintUsage writes a caller's per-day decision counts since the given time as a table.
func PrintUsage(ctx context.Context, reader UsageReader, callerID string, since time.Time, w io.Writer) error {
	counts, err := reader.DailyCounts(ctx, callerID, since)
	if err != nil {
		return fmt.Errorf("read usage: %w", err)
	}

	if len(counts) == 0 {
		_, err := fmt.Fprintf(w, "no decisions recorded for %s since %s\n", callerID, since.Format(time.DateOnly))

		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Quota decisions for %s", callerID)
	t.AppendHeader(table.Row{"Day", "Outcome", "Count"})

	var total int64

	for _, c := range counts {
		t.AppendRow(table.Row{c.Day.Format(time.DateOnly), c.Outcome, c.Count})
		total += c.Count
	}

	t.AppendFooter(table.Row{"", "Total", total})

	_, err = fmt.Fprintln(w, t.Render())

	return err
}

// Compile-time check.
var _ Client = (*redis.Client)(nil)
