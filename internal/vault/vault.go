// Package vault stores generated documents for a limited time and hands out
// signed download links. Files land on disk; metadata lives in SQLite so
// listings and expiry survive restarts. Entries expire after a TTL and a
// background sweep removes them.
package vault

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultTTL is how long a vaulted document stays downloadable.
const DefaultTTL = 3 * time.Hour

var (
	ErrNotFound = errors.New("vault entry not found")
	ErrExpired  = errors.New("vault entry expired")
	// ErrBadSignature covers both tampered and malformed download links.
	ErrBadSignature = errors.New("invalid download signature")
)

// Entry is the metadata of one vaulted document.
type Entry struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Vault is the document store.
type Vault struct {
	db     *sql.DB
	dir    string
	secret []byte
	ttl    time.Duration
	logger *log.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS vault_files (
	id         TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vault_expires ON vault_files(expires_at);
`

// New opens (or creates) a vault rooted at dir. The secret signs download
// URLs; rotating it invalidates every outstanding link.
func New(dsn, dir, secret string, ttl time.Duration, logger *log.Logger) (*Vault, error) {
	if secret == "" {
		return nil, fmt.Errorf("vault signing secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault database: %w", err)
	}
	// A second pooled connection would see a different ":memory:" database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vault schema: %w", err)
	}

	return &Vault{db: db, dir: dir, secret: []byte(secret), ttl: ttl, logger: logger}, nil
}

// Close releases the metadata database.
func (v *Vault) Close() error { return v.db.Close() }

func (v *Vault) path(id string) string {
	return filepath.Join(v.dir, id+".pdf")
}

// Put stores a document and returns its entry plus a signed download path.
func (v *Vault) Put(ctx context.Context, filename string, data []byte) (Entry, string, error) {
	now := time.Now()
	e := Entry{
		ID:        uuid.NewString(),
		Filename:  filename,
		Size:      int64(len(data)),
		CreatedAt: now,
		ExpiresAt: now.Add(v.ttl),
	}

	if err := os.WriteFile(v.path(e.ID), data, 0o644); err != nil {
		return Entry{}, "", fmt.Errorf("failed to write vault file: %w", err)
	}
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO vault_files (id, filename, size, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Filename, e.Size, e.CreatedAt.Unix(), e.ExpiresAt.Unix())
	if err != nil {
		os.Remove(v.path(e.ID))
		return Entry{}, "", fmt.Errorf("failed to record vault entry: %w", err)
	}

	v.logger.Info("document vaulted", "id", e.ID, "filename", filename, "expires", e.ExpiresAt)
	return e, v.SignedPath(e.ID, e.ExpiresAt), nil
}

// SignedPath builds the download path for an entry, valid until exp.
func (v *Vault) SignedPath(id string, exp time.Time) string {
	expStr := strconv.FormatInt(exp.Unix(), 10)
	return fmt.Sprintf("/api/vault/%s/download?exp=%s&sig=%s", id, expStr, v.sign(id, expStr))
}

func (v *Vault) sign(id, exp string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id + ":" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a download link's signature and expiry.
func (v *Vault) Verify(id, exp, sig string) error {
	want := v.sign(id, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if time.Now().After(time.Unix(unix, 0)) {
		return ErrExpired
	}
	return nil
}

// Open returns a vaulted document and its entry. Expired entries report
// ErrExpired even before the sweep has removed them.
func (v *Vault) Open(ctx context.Context, id string) ([]byte, Entry, error) {
	e, err := v.get(ctx, id)
	if err != nil {
		return nil, Entry{}, err
	}
	if time.Now().After(e.ExpiresAt) {
		return nil, Entry{}, ErrExpired
	}
	data, err := os.ReadFile(v.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Entry{}, ErrNotFound
		}
		return nil, Entry{}, fmt.Errorf("failed to read vault file: %w", err)
	}
	return data, e, nil
}

func (v *Vault) get(ctx context.Context, id string) (Entry, error) {
	var e Entry
	var created, expires int64
	err := v.db.QueryRowContext(ctx,
		`SELECT id, filename, size, created_at, expires_at FROM vault_files WHERE id = ?`, id).
		Scan(&e.ID, &e.Filename, &e.Size, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query vault entry: %w", err)
	}
	e.CreatedAt = time.Unix(created, 0)
	e.ExpiresAt = time.Unix(expires, 0)
	return e, nil
}

// List returns unexpired entries, newest first.
func (v *Vault) List(ctx context.Context) ([]Entry, error) {
	rows, err := v.db.QueryContext(ctx,
		`SELECT id, filename, size, created_at, expires_at FROM vault_files
		 WHERE expires_at > ? ORDER BY created_at DESC`, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list vault entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created, expires int64
		if err := rows.Scan(&e.ID, &e.Filename, &e.Size, &created, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan vault entry: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		e.ExpiresAt = time.Unix(expires, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes an entry and its file.
func (v *Vault) Delete(ctx context.Context, id string) error {
	res, err := v.db.ExecContext(ctx, `DELETE FROM vault_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vault entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := os.Remove(v.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove vault file: %w", err)
	}
	return nil
}

// Sweep removes all expired entries and their files, returning how many
// were removed.
func (v *Vault) Sweep(ctx context.Context) (int, error) {
	rows, err := v.db.QueryContext(ctx,
		`SELECT id FROM vault_files WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to query expired entries: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if _, err := v.db.ExecContext(ctx, `DELETE FROM vault_files WHERE id = ?`, id); err != nil {
			v.logger.Warn("failed to sweep vault entry", "id", id, "err", err)
			continue
		}
		if err := os.Remove(v.path(id)); err != nil && !os.IsNotExist(err) {
			v.logger.Warn("failed to remove swept file", "id", id, "err", err)
		}
		removed++
	}
	return removed, nil
}

// StartCleanup runs Sweep on the given interval until ctx is canceled. One
// sweep runs immediately so stale files from a previous run disappear at
// startup rather than an hour in.
func (v *Vault) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		v.sweepOnce(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v.sweepOnce(ctx)
			}
		}
	}()
}

func (v *Vault) sweepOnce(ctx context.Context) {
	n, err := v.Sweep(ctx)
	if err != nil {
		v.logger.Error("vault sweep failed", "err", err)
		return
	}
	if n > 0 {
		v.logger.Info("vault sweep complete", "removed", n)
	}
}
