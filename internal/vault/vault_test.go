package vault

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, ttl time.Duration) *Vault {
	t.Helper()
	v, err := New(":memory:", t.TempDir(), "test-secret", ttl, log.New(nil))
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func TestVaultPutOpen(t *testing.T) {
	v := newTestVault(t, time.Hour)
	ctx := context.Background()

	e, link, err := v.Put(ctx, "filled_SBD4.pdf", []byte("%PDF-1.4 data"))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, int64(13), e.Size)
	assert.True(t, strings.HasPrefix(link, "/api/vault/"+e.ID+"/download?"))

	data, got, err := v.Open(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 data"), data)
	assert.Equal(t, "filled_SBD4.pdf", got.Filename)
}

func TestVaultOpenMissing(t *testing.T) {
	v := newTestVault(t, time.Hour)
	_, _, err := v.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVaultSignedLinkVerifies(t *testing.T) {
	v := newTestVault(t, time.Hour)
	e, link, err := v.Put(context.Background(), "doc.pdf", []byte("x"))
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	exp := u.Query().Get("exp")
	sig := u.Query().Get("sig")

	assert.NoError(t, v.Verify(e.ID, exp, sig))

	// Tampering with any part of the link breaks the signature.
	assert.ErrorIs(t, v.Verify("other-id", exp, sig), ErrBadSignature)
	assert.ErrorIs(t, v.Verify(e.ID, exp, sig+"00"), ErrBadSignature)
	later := strconv.FormatInt(time.Now().Add(24*time.Hour).Unix(), 10)
	assert.ErrorIs(t, v.Verify(e.ID, later, sig), ErrBadSignature)
	assert.ErrorIs(t, v.Verify(e.ID, "not-a-number", v.sign(e.ID, "not-a-number")), ErrBadSignature)
}

func TestVaultVerifyExpired(t *testing.T) {
	v := newTestVault(t, time.Hour)
	past := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	err := v.Verify("some-id", past, v.sign("some-id", past))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVaultOpenExpiredEntry(t *testing.T) {
	v := newTestVault(t, time.Nanosecond)
	e, _, err := v.Put(context.Background(), "doc.pdf", []byte("x"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, _, err = v.Open(context.Background(), e.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVaultListOrderAndExpiry(t *testing.T) {
	v := newTestVault(t, time.Hour)
	ctx := context.Background()

	first, _, err := v.Put(ctx, "first.pdf", []byte("1"))
	require.NoError(t, err)
	// Distinct created_at so the ordering is observable at second precision.
	_, execErr := v.db.Exec(`UPDATE vault_files SET created_at = created_at - 60 WHERE id = ?`, first.ID)
	require.NoError(t, execErr)

	second, _, err := v.Put(ctx, "second.pdf", []byte("2"))
	require.NoError(t, err)

	expired, _, err := v.Put(ctx, "expired.pdf", []byte("3"))
	require.NoError(t, err)
	_, execErr = v.db.Exec(`UPDATE vault_files SET expires_at = 1 WHERE id = ?`, expired.ID)
	require.NoError(t, execErr)

	entries, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestVaultDelete(t *testing.T) {
	v := newTestVault(t, time.Hour)
	ctx := context.Background()

	e, _, err := v.Put(ctx, "doc.pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, v.Delete(ctx, e.ID))
	_, statErr := os.Stat(v.path(e.ID))
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, v.Delete(ctx, e.ID), ErrNotFound)
}

func TestVaultSweep(t *testing.T) {
	v := newTestVault(t, time.Hour)
	ctx := context.Background()

	keep, _, err := v.Put(ctx, "keep.pdf", []byte("k"))
	require.NoError(t, err)
	gone, _, err := v.Put(ctx, "gone.pdf", []byte("g"))
	require.NoError(t, err)
	_, execErr := v.db.Exec(`UPDATE vault_files SET expires_at = 1 WHERE id = ?`, gone.ID)
	require.NoError(t, execErr)

	n, err := v.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, _, err = v.Open(ctx, keep.ID)
	assert.NoError(t, err)
	_, _, err = v.Open(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(v.path(gone.ID))
	assert.True(t, os.IsNotExist(statErr))
}
