package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/application"
)

func newStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), maxBytes, nil)
	require.NoError(t, err)
	store.newID = func() string { return "fixed" }
	return store
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 0)

	att, err := store.Save(ctx, application.Upload{
		FileName:    `C:\docs\Notes.PDF`,
		ContentType: "application/pdf",
		Body:        strings.NewReader("minutes body"),
	})
	require.NoError(t, err)
	assert.Equal(t, "meeting_minutes/fixed.pdf", att.Key)
	assert.Equal(t, int64(len("minutes body")), att.Size)
	assert.Equal(t, "application/pdf", att.ContentType)

	rc, err := store.Open(ctx, att.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "minutes body", string(data))

	require.NoError(t, store.Delete(ctx, att.Key))
	_, err = store.Open(ctx, att.Key)
	assert.ErrorIs(t, err, application.ErrNotFound)
	assert.NoError(t, store.Delete(ctx, att.Key), "deleting twice is fine")
}

func TestLocalStore_DefaultsContentType(t *testing.T) {
	store := newStore(t, 0)

	att, err := store.Save(context.Background(), application.Upload{FileName: "notes", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.ContentType)
	assert.Equal(t, "meeting_minutes/fixed", att.Key)
	assert.Equal(t, "notes", att.FileName)
}

func TestLocalStore_EnforcesSizeLimit(t *testing.T) {
	store := newStore(t, 4)

	_, err := store.Save(context.Background(), application.Upload{FileName: "big.txt", Body: strings.NewReader("too large")})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(store.root, "meeting_minutes", "fixed.txt"))
	assert.True(t, os.IsNotExist(statErr), "partial file is removed")
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store := newStore(t, 0)

	for _, key := range []string{"", "../etc/passwd", "meeting_minutes/../../x", "/meeting_minutes/a", "other/a"} {
		_, err := store.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestCleanExt(t *testing.T) {
	assert.Equal(t, ".docx", cleanExt("Minutes.DOCX"))
	assert.Equal(t, "", cleanExt("archive.t@r"))
	assert.Equal(t, "", cleanExt("noext"))
	assert.Equal(t, ".txt", cleanExt("../../evil.txt"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "Notes.PDF", baseName(`C:\docs\Notes.PDF`))
	assert.Equal(t, "a.txt", baseName("dir/a.txt"))
}
