// Package repositories implements SQLite persistence for the download ledger.
//
// The ledger keeps one row per media part that finished downloading, so
// repeated runs of the download command can skip files that are already
// verified on disk without re-probing their sizes.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/plextool/plextool/internal/shared"
)

// Download is one completed transfer recorded in the ledger.
type Download struct {
	ID           int64
	RatingKey    string
	PartID       int
	Title        string
	Path         string
	Size         int64
	DownloadedAt time.Time
}

// DownloadRepository persists completed downloads.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a DownloadRepository over an open database.
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record inserts a completed download, replacing any earlier entry for the
// same part and path. Re-downloading a file refreshes its size and timestamp.
func (r *DownloadRepository) Record(d *Download) error {
	query := `
		INSERT INTO downloads (rating_key, part_id, title, path, size)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (part_id, path) DO UPDATE SET
			rating_key = excluded.rating_key,
			title = excluded.title,
			size = excluded.size,
			downloaded_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.Exec(query, d.RatingKey, d.PartID, d.Title, d.Path, d.Size); err != nil {
		return fmt.Errorf("%w: recording download of %s: %v", shared.ErrDatabase, d.Path, err)
	}
	return nil
}

// Completed returns the recorded size for a part at the given path. The
// second return is false when the ledger has no entry.
func (r *DownloadRepository) Completed(partID int, path string) (int64, bool, error) {
	var size int64
	err := r.db.QueryRow("SELECT size FROM downloads WHERE part_id = ? AND path = ?", partID, path).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: looking up part %d: %v", shared.ErrDatabase, partID, err)
	}
	return size, true, nil
}

// History returns recorded downloads, newest first. A limit of zero or less
// returns everything.
func (r *DownloadRepository) History(limit int) ([]Download, error) {
	query := `
		SELECT id, rating_key, part_id, title, path, size, downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC, id DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying history: %v", shared.ErrDatabase, err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.ID, &d.RatingKey, &d.PartID, &d.Title, &d.Path, &d.Size, &d.DownloadedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning download: %v", shared.ErrDatabase, err)
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating history: %v", shared.ErrDatabase, err)
	}

	return downloads, nil
}

// Forget removes the ledger entry for a part at the given path, if any.
// Used when a verified file turns out to be missing or wrong on disk.
func (r *DownloadRepository) Forget(partID int, path string) error {
	if _, err := r.db.Exec("DELETE FROM downloads WHERE part_id = ? AND path = ?", partID, path); err != nil {
		return fmt.Errorf("%w: forgetting part %d: %v", shared.ErrDatabase, partID, err)
	}
	return nil
}
