package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"justified-gallery/internal/probe"
)

// LookupDimensions implements probe.Store.
func (d *Database) LookupDimensions(ctx context.Context, key probe.Key) (size probe.Size, found bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get_dimensions", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT width, height FROM dimensions
		WHERE path = ? AND mod_time = ? AND size = ?
	`, key.Path, key.ModTime, key.Bytes).Scan(&size.Width, &size.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return probe.Size{}, false, nil
	}
	if err != nil {
		return probe.Size{}, false, err
	}
	return size, true, nil
}

// SaveDimensions implements probe.Store. Older versions of the same path
// are replaced.
func (d *Database) SaveDimensions(ctx context.Context, key probe.Key, size probe.Size) (err error) {
	start := time.Now()
	defer func() { recordQuery("put_dimensions", start, err) }()

	if !size.Valid() {
		return probe.ErrInvalidSize
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM dimensions WHERE path = ? AND (mod_time != ? OR size != ?)`,
		key.Path, key.ModTime, key.Bytes); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO dimensions (path, mod_time, size, width, height, probed_at)
		VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path, mod_time, size) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			probed_at = excluded.probed_at
	`, key.Path, key.ModTime, key.Bytes, size.Width, size.Height); err != nil {
		return err
	}
	return tx.Commit()
}

// CountDimensions returns the number of cached sizes.
func (d *Database) CountDimensions(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_dimensions", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dimensions").Scan(&n)
	return n, err
}

// PruneDimensions removes sizes probed before cutoff and returns how many
// rows went.
func (d *Database) PruneDimensions(ctx context.Context, cutoff time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune_dimensions", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM dimensions WHERE probed_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
