package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetMetadata retrieves a metadata value by key. It returns sql.ErrNoRows
// if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastPrune returns when the dimension cache was last pruned, or the
// zero time if it never was.
func (d *Database) GetLastPrune(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, "last_prune")
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastPrune records the time of a prune.
func (d *Database) SetLastPrune(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, "last_prune", "")
	}
	return d.SetMetadata(ctx, "last_prune", t.UTC().Format(time.RFC3339))
}

// Prune removes cache rows older than maxAge unless a prune already ran
// within interval.
func (d *Database) Prune(ctx context.Context, maxAge, interval time.Duration) (int64, error) {
	last, err := d.GetLastPrune(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	if !last.IsZero() && now.Sub(last) < interval {
		return 0, nil
	}
	n, err := d.PruneDimensions(ctx, now.Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return n, d.SetLastPrune(ctx, now)
}
