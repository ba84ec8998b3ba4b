package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func newLocal(t *testing.T) (Storage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)
	return s, root
}

func TestNewLocal(t *testing.T) {
	_, err := NewLocal("  ")
	assert.Error(t, err)

	root := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err = NewLocal(root)
	require.NoError(t, err)
	st, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestLocal_PutStatGetRange(t *testing.T) {
	s, root := newLocal(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "a.pdf", strings.NewReader("0123456789"), PutObjectOptions{ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.pdf"), info.Key)
	assert.Equal(t, int64(10), info.Size)

	st, err := s.Stat(ctx, info.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Size)

	tests := []struct {
		name           string
		offset, length int64
		want           string
	}{
		{"whole", 0, -1, "0123456789"},
		{"prefix", 0, 4, "0123"},
		{"middle", 3, 4, "3456"},
		{"tail", 7, -1, "789"},
		{"past end is truncated", 8, 10, "89"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := s.GetRange(ctx, info.Key, tt.offset, tt.length)
			require.NoError(t, err)
			defer rc.Close()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestLocal_PutRejectsExistingAndUnsafeNames(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "dup.png", strings.NewReader("x"), PutObjectOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "dup.png", strings.NewReader("y"), PutObjectOptions{})
	assert.Error(t, err)

	for _, name := range []string{"", ".", "..", "../escape.pdf", "dir/file.pdf"} {
		_, err := s.Put(ctx, name, strings.NewReader("x"), PutObjectOptions{})
		assert.Error(t, err, name)
	}
}

func TestLocal_PutRemovesPartialBlobOnReaderError(t *testing.T) {
	s, root := newLocal(t)
	ctx := context.Background()
	boom := errors.New("too big")

	_, err := s.Put(ctx, "partial.pdf", &failingReader{data: bytes.Repeat([]byte("a"), 4096), err: boom}, PutObjectOptions{})

	assert.ErrorIs(t, err, boom)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocal_StatMissingAndOutsideRoot(t *testing.T) {
	s, root := newLocal(t)
	ctx := context.Background()

	_, err := s.Stat(ctx, filepath.Join(root, "nope.pdf"))
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Stat(ctx, filepath.Join(root, "..", "etc", "passwd"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	_, err = s.GetRange(ctx, filepath.Join(root, "nope.pdf"), 0, -1)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocal_Delete(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "gone.doc", strings.NewReader("bye"), PutObjectOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, info.Key))
	_, err = s.Stat(ctx, info.Key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, s.Delete(ctx, info.Key))
}

func TestLocal_CanceledContext(t *testing.T) {
	s, _ := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "x.pdf", strings.NewReader("x"), PutObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
