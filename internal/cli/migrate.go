package cli

import (
	"fmt"
	"time"

	"kibaro-cli/internal/infra/sqlstore"

	"github.com/spf13/cobra"
)

// newMigrateCmd manages the offline score store schema.
func newMigrateCmd(d *deps) *cobra.Command {
	var rollback bool
	var purge time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run offline store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if rollback {
				db, err := d.openOfflineDB()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := sqlstore.Rollback(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(d.out, "last migration group rolled back")
				return nil
			}

			queue, err := d.offlineQueue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(d.out, "offline store ready (%s)\n", d.cfg.Offline.Driver)
			if purge > 0 {
				n, err := queue.Purge(ctx, time.Now().Add(-purge))
				if err != nil {
					return err
				}
				fmt.Fprintf(d.out, "purged %d synced scores\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last migration group")
	cmd.Flags().DurationVar(&purge, "purge-synced", 0, "also delete synced scores older than this")
	return cmd
}
