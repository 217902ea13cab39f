package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder-labs/mirador/internal/core/domain"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync [tenant-id]",
	Short: "Run one sync for a tenant",
	Long: `Runs one reconciliation for the given tenant: lists remote
documents, diffs them against the stored manifest and re-indexes only
the documents that changed. With --all, every tenant is synced in turn.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every tenant")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	if !syncAll && len(args) == 0 {
		return errors.New("a tenant id is required unless --all is given")
	}

	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if syncAll {
		tenants, err := app.store.TenantStore().List(ctx)
		if err != nil {
			return fmt.Errorf("listing tenants: %w", err)
		}
		var failed int
		for i := range tenants {
			cmd.Printf("Syncing %s (%s)...\n", tenants[i].Email, tenants[i].ID)
			if err := syncOne(ctx, cmd, app, tenants[i].ID); err != nil {
				cmd.Printf("  failed: %v\n", err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d tenants failed to sync", failed, len(tenants))
		}
		return nil
	}

	return syncOne(ctx, cmd, app, args[0])
}

func syncOne(ctx context.Context, cmd *cobra.Command, app *app, tenantID string) error {
	result, err := app.orchestrator.RunSync(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return fmt.Errorf("a sync is already running for tenant %s", tenantID)
		}
		if result != nil {
			printRun(cmd, result)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	printRun(cmd, result)
	return nil
}

func printRun(cmd *cobra.Command, r *domain.SyncRunResult) {
	cmd.Printf("Run %s finished in %s\n", r.RunID, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	cmd.Printf("  added=%d modified=%d unchanged=%d deleted=%d processed=%d chunk_delta=%+d\n",
		r.Added, r.Modified, r.Unchanged, r.Deleted, r.Processed, r.ChunkDelta)
	for id, msg := range r.PerDocumentErrors {
		cmd.Printf("  error %s: %s\n", id, msg)
	}
}
