package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/photometa/config"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()
	root := t.TempDir()
	return New(config.StorageConfig{Root: root, ExportsDir: "json_files", UploadsDir: "json_uploads"}), root
}

func TestGenerateName(t *testing.T) {
	s, _ := newTestStore(t)

	a, b := s.GenerateName(), s.GenerateName()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}\.json$`), a)
	assert.NotEqual(t, a, b)
}

func TestSaveAndRead_RoundTrip(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	doc := map[string]interface{}{
		"filename": "東京タワー.jpg",
		"format":   "JPEG",
		"note":     "<b>&</b>",
		"width":    1920,
	}
	path, err := s.Save(ctx, BucketExports, s.GenerateName(), doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "json_files"), filepath.Dir(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "東京タワー.jpg")
	assert.Contains(t, text, "<b>&</b>")
	assert.Contains(t, text, "\n  \"format\": \"JPEG\"")
	assert.True(t, strings.HasSuffix(text, "}\n"))

	v, err := s.Read(ctx, path)
	require.NoError(t, err)
	obj := v.(map[string]interface{})
	assert.Equal(t, "東京タワー.jpg", obj["filename"])
	assert.Equal(t, json.Number("1920"), obj["width"])
}

func TestSave_NeverOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, BucketExports, "fixed.json", map[string]int{"a": 1})
	require.NoError(t, err)
	_, err = s.Save(ctx, BucketExports, "fixed.json", map[string]int{"a": 2})
	assert.True(t, apperrors.Is(err, apperrors.ErrIOFailure))
}

func TestSaveRaw_Limit(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	path, size, err := s.SaveRaw(ctx, BucketUploads, "ok.json", strings.NewReader(`{"a":1}`), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
	assert.FileExists(t, path)

	_, _, err = s.SaveRaw(ctx, BucketUploads, "big.json", strings.NewReader(`{"a":12}`), 7)
	assert.True(t, apperrors.Is(err, apperrors.ErrFileTooLarge))
	assert.NoFileExists(t, filepath.Join(root, "json_uploads", "big.json"))
}

func TestRead_DistinguishesParseAndIOErrors(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	path, _, err := s.SaveRaw(ctx, BucketUploads, "bad.json", strings.NewReader(`{"a":`), 1024)
	require.NoError(t, err)
	_, err = s.Read(ctx, path)
	assert.True(t, apperrors.Is(err, apperrors.ErrParse))

	trailing, _, err := s.SaveRaw(ctx, BucketUploads, "trailing.json", strings.NewReader(`{"a":1} x`), 1024)
	require.NoError(t, err)
	_, err = s.Read(ctx, trailing)
	assert.True(t, apperrors.Is(err, apperrors.ErrParse))

	_, err = s.Read(ctx, filepath.Join(root, "json_uploads", "missing.json"))
	assert.True(t, apperrors.Is(err, apperrors.ErrFileNotFound))

	dir := filepath.Join(root, "json_uploads", "dir.json")
	require.NoError(t, os.Mkdir(dir, 0755))
	_, err = s.Read(ctx, dir)
	assert.True(t, apperrors.Is(err, apperrors.ErrIOFailure))
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	path, err := s.Save(ctx, BucketUploads, "gone.json", []int{1})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, path))
	assert.NoFileExists(t, path)

	assert.True(t, apperrors.Is(s.Delete(ctx, path), apperrors.ErrFileNotFound))
	assert.Error(t, s.Delete(ctx, "/etc/passwd"))
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	files, err := s.List(ctx, BucketExports)
	require.NoError(t, err)
	assert.Empty(t, files)

	older, err := s.Save(ctx, BucketExports, "older.json", []int{1})
	require.NoError(t, err)
	_, err = s.Save(ctx, BucketExports, "newer.json", []int{2})
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	files, err = s.List(ctx, BucketExports)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "newer.json", files[0].Name)
	assert.Equal(t, "older.json", files[1].Name)
	assert.Equal(t, BucketExports, files[0].Bucket)
}

func TestOpen_SanitisesName(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, BucketExports, "record.json", []int{1})
	require.NoError(t, err)

	path, err := s.Open(ctx, BucketExports, "../../record.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "json_files", "record.json"), path)

	_, err = s.Open(ctx, BucketExports, "record.txt")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedExtension))

	_, err = s.Open(ctx, BucketUploads, "record.json")
	assert.True(t, apperrors.Is(err, apperrors.ErrFileNotFound))
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("")
	require.NoError(t, err)
	assert.Equal(t, BucketExports, b)

	b, err = ParseBucket("Uploads")
	require.NoError(t, err)
	assert.Equal(t, BucketUploads, b)

	_, err = ParseBucket("tmp")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))
}
