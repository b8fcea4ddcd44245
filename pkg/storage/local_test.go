package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	info, err := s.Upload(ctx, "../movimientos.csv", "text/csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "../movimientos.csv", info.Name)
	assert.Equal(t, int64(8), info.Size)
	assert.NotContains(t, info.Path, "/")

	rc, got, err := s.Download(ctx, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, info.ID, got.ID)
}

func TestLocalStorage_DeleteAndMissing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	info, err := s.Upload(ctx, "x.json", "application/json", strings.NewReader("[]"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, info.ID))

	_, err = s.GetInfo(ctx, info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, s.Delete(ctx, uuid.New()), ErrFileNotFound)
}

func TestLocalStorage_PurgeBefore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		s.now = func() time.Time { return base.AddDate(0, 0, i*10) }
		_, err := s.Upload(ctx, "f.csv", "text/csv", strings.NewReader("x"))
		require.NoError(t, err)
	}

	removed, err := s.PurgeBefore(ctx, base.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, base.AddDate(0, 0, 20), files[0].CreatedAt)
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, s)
}
