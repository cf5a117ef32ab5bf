package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upSnapshotTimeIndex, downSnapshotTimeIndex)
}

func upSnapshotTimeIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "CREATE UNIQUE INDEX idx_snapshots_run_time ON snapshots (run_id, time)")
	if err != nil {
		return fmt.Errorf("creating snapshot time index : %w", err)
	}
	return nil
}

func downSnapshotTimeIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP INDEX idx_snapshots_run_time")
	if err != nil {
		return fmt.Errorf("dropping snapshot time index : %w", err)
	}
	return nil
}
