package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/photometa/config"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/service/filestore"
)

const validRecord = `{"filename":"a.jpg","format":"JPEG","file_size":1000,"width":100,"height":100}`

func TestCheckBytes(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		valid   bool
		code    apperrors.ErrorCode
		index   int
		missing []string
	}{
		{"单个对象", validRecord, true, 0, -1, nil},
		{"对象数组", "[" + validRecord + "," + validRecord + "]", true, 0, -1, nil},
		{"只检查键是否存在", `{"filename":1,"format":null,"file_size":"x","width":[],"height":{}}`, true, 0, -1, nil},
		{"缺少width", `{"filename":"a.jpg","format":"JPEG","file_size":1000,"height":100}`, false, apperrors.ErrIncompleteRecord, -1, []string{"width"}},
		{"数组中第二个不完整", "[" + validRecord + `,{"filename":"b.jpg"}]`, false, apperrors.ErrIncompleteRecord, 1, []string{"format", "file_size", "width", "height"}},
		{"空数组", `[]`, false, apperrors.ErrUnsupportedShape, -1, nil},
		{"数组元素不是对象", "[" + validRecord + `, 42]`, false, apperrors.ErrUnsupportedShape, 1, nil},
		{"顶层是字符串", `"hello"`, false, apperrors.ErrUnsupportedShape, -1, nil},
		{"顶层是null", `null`, false, apperrors.ErrUnsupportedShape, -1, nil},
		{"语法错误", `{"filename":`, false, apperrors.ErrParse, -1, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := CheckBytes([]byte(tc.input))
			assert.Equal(t, tc.valid, v.Valid, v.Message)
			assert.Equal(t, tc.code, v.Code)
			assert.Equal(t, tc.index, v.Index)
			assert.Equal(t, tc.missing, v.Missing)
			assert.NotEmpty(t, v.Message)
			if tc.valid {
				assert.NoError(t, v.Err())
			} else {
				assert.True(t, apperrors.Is(v.Err(), tc.code))
			}
		})
	}
}

func TestCheckFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := filestore.New(config.StorageConfig{Root: root})

	path, _, err := store.SaveRaw(ctx, filestore.BucketUploads, "ok.json", strings.NewReader(validRecord), 1024)
	require.NoError(t, err)
	assert.True(t, CheckFile(ctx, store, path).Valid)

	v := CheckFile(ctx, store, filepath.Join(root, "json_uploads", "missing.json"))
	assert.False(t, v.Valid)
	assert.Equal(t, apperrors.ErrIOFailure, v.Code)
}
