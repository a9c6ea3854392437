// package repositories provides the SQLite persistence for the local history.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/protokoll/internal/shared"
)

const defaultListLimit = 50

// deleteByID removes one row from table and reports a missing row as [shared.ErrNotFound].
func deleteByID(db *sql.DB, table, id string) error {
	result, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s record %s", shared.ErrNotFound, table, id)
	}

	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
