// Package backup copies the bolt database file to object storage and back.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/rs/zerolog"
)

// Prefix is the object prefix snapshots are written under.
const Prefix = "backups/"

// ObjectName returns the snapshot object name for t.
func ObjectName(t time.Time) string {
	return Prefix + t.UTC().Format("20060102T150405Z") + ".db"
}

// Snapshot streams a consistent copy of db to bucket and returns the gs:// URI
// of the new object.
func Snapshot(ctx context.Context, db *bolt.DB, store ObjectStorage, bucket string, now time.Time, log zerolog.Logger) (string, error) {
	if bucket == "" {
		return "", errors.New("Snapshot: bucket is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	object := ObjectName(now)
	w := store.NewWriter(ctx, bucket, object)

	var size int64
	err := db.View(func(tx *bolt.Tx) error {
		n, err := tx.WriteTo(w)
		size = n
		return err
	})
	if err != nil {
		// Cancelling before Close aborts the upload instead of committing a
		// partial object.
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("Snapshot: write database: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Snapshot: finalize upload: %w", err)
	}

	uri := ObjectURI(bucket, object)
	log.Info().Str("uri", uri).Int64("bytes", size).Msg("Database snapshot uploaded")
	return uri, nil
}

// Restore downloads the snapshot at uri into destPath. The target must not be
// open by a running store.
func Restore(ctx context.Context, store ObjectStorage, uri, destPath string, log zerolog.Logger) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return fmt.Errorf("Restore: %w", err)
	}

	r, err := store.NewReader(ctx, bucket, object)
	if err != nil {
		return fmt.Errorf("Restore: %w", err)
	}
	defer r.Close()

	tmp := destPath + ".restore"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("Restore: open %q: %w", tmp, err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("Restore: download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("Restore: close %q: %w", tmp, err)
	}

	if err := verify(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("Restore: %s is not a usable database: %w", Filename(uri), err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return fmt.Errorf("Restore: rename: %w", err)
	}

	log.Info().Str("uri", uri).Str("path", destPath).Int64("bytes", n).Msg("Database restored")
	return nil
}

func verify(path string) error {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return err
	}
	return db.Close()
}
