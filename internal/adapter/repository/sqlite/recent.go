package sqlite

import (
	"database/sql"

	dbutil "github.com/tejashwikalptaru/tunesync/internal/db"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// RecentSearchRepository persists recent queries, position 0 being the newest.
type RecentSearchRepository struct {
	db *sql.DB
}

// SaveRecentSearches replaces the stored list.
func (r *RecentSearchRepository) SaveRecentSearches(queries []string) error {
	err := dbutil.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM recent_searches`); err != nil {
			return err
		}
		for i, q := range queries {
			if _, err := tx.Exec(`INSERT INTO recent_searches (position, query) VALUES (?, ?)`, i, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("save", "recent", "failed to write recent searches", err)
	}
	return nil
}

// LoadRecentSearches returns the stored list.
func (r *RecentSearchRepository) LoadRecentSearches() ([]string, error) {
	rows, err := r.db.Query(`SELECT query FROM recent_searches ORDER BY position`)
	if err != nil {
		return nil, domain.NewRepositoryError("load", "recent", "failed to read recent searches", err)
	}
	defer rows.Close()

	queries := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, domain.NewRepositoryError("load", "recent", "failed to read recent searches", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Verify interface implementation
var _ ports.RecentSearchRepository = (*RecentSearchRepository)(nil)
