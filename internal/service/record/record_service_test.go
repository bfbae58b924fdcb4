package record

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	return db
}

func baseFields() map[string]interface{} {
	return map[string]interface{}{
		"filename":  "a.jpg",
		"format":    "JPEG",
		"file_size": json.Number("1000"),
		"width":     json.Number("100"),
		"height":    json.Number("100"),
	}
}

func withField(key string, value interface{}) map[string]interface{} {
	f := baseFields()
	f[key] = value
	return f
}

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("插入成功", func(t *testing.T) {
		svc := NewRecordService(setupTestDB(t))

		res, err := svc.CreateFromFields(ctx, baseFields())
		require.NoError(t, err)
		assert.Equal(t, OutcomeInserted, res.Outcome)
		require.NotNil(t, res.Record)
		assert.NotZero(t, res.Record.ID)
		assert.False(t, res.Record.CreatedDate.IsZero())
	})

	t.Run("重复键返回Duplicate", func(t *testing.T) {
		svc := NewRecordService(setupTestDB(t))

		_, err := svc.CreateFromFields(ctx, baseFields())
		require.NoError(t, err)
		res, err := svc.CreateFromFields(ctx, baseFields())
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
		require.NotNil(t, res.Reason)
		assert.Equal(t, apperrors.ErrDuplicateKey, res.Reason.Code)
	})

	t.Run("格式不区分大小写并存为大写", func(t *testing.T) {
		svc := NewRecordService(setupTestDB(t))

		res, err := svc.CreateFromFields(ctx, withField("format", "png"))
		require.NoError(t, err)
		require.Equal(t, OutcomeInserted, res.Outcome)
		assert.Equal(t, "PNG", res.Record.Format)
	})

	t.Run("服务端字段被忽略", func(t *testing.T) {
		svc := NewRecordService(setupTestDB(t))

		f := baseFields()
		f["id"] = json.Number("999")
		f["created_date"] = "2000-01-01T00:00:00Z"
		res, err := svc.CreateFromFields(ctx, f)
		require.NoError(t, err)
		require.Equal(t, OutcomeInserted, res.Outcome)
		assert.NotEqual(t, uint(999), res.Record.ID)
		assert.True(t, res.Record.CreatedDate.Year() > 2000)
	})
}

func TestRecordService_CreateFilename(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	res, err := svc.CreateFromFields(ctx, withField("filename", "photo 1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	res, err = svc.CreateFromFields(ctx, withField("filename", "photo/1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	require.NotNil(t, res.Reason)
	assert.Equal(t, apperrors.ErrValidation, res.Reason.Code)
	assert.Equal(t, []string{"filename"}, res.Reason.Fields)

	res, err = svc.CreateFromFields(ctx, withField("filename", "фото_2024.jpg"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)
}

func TestRecordService_LatitudeBoundaries(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	cases := []struct {
		name    string
		lat     string
		outcome Outcome
	}{
		{"超出上界", "95", OutcomeRejected},
		{"下界", "-90", OutcomeInserted},
		{"上界", "90", OutcomeInserted},
		{"小数位过多", "45.1234567", OutcomeRejected},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := withField("latitude", json.Number(tc.lat))
			f["width"] = json.Number(string(rune('1' + i)))
			res, err := svc.CreateFromFields(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, res.Outcome)
			if tc.outcome == OutcomeRejected {
				assert.Contains(t, res.Reason.Fields, "latitude")
			}
		})
	}
}

func TestRecordService_FieldValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	cases := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"文件大小为零", "file_size", json.Number("0")},
		{"宽度为负", "width", json.Number("-1")},
		{"ISO为零", "iso", json.Number("0")},
		{"未知格式", "format", "WEBP"},
		{"经度越界", "longitude", "180.5"},
		{"光圈位数过多", "aperture", "123.4"},
		{"光圈小数位过多", "aperture", "2.85"},
		{"焦距为负", "focal_length", "-35"},
		{"宽度不是整数", "width", json.Number("10.5")},
		{"宽度超出32位", "width", json.Number("3000000000")},
		{"高度超出32位", "height", "-3000000000"},
		{"ISO超出32位", "iso", json.Number("2147483648")},
		{"焦距超出上限", "focal_length", "10000"},
		{"纬度指数过小", "latitude", "1e-20000000"},
		{"文件名类型错误", "filename", json.Number("12")},
		{"未知字段", "owner", "alice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.CreateFromFields(ctx, withField(tc.key, tc.value))
			require.NoError(t, err)
			assert.Equal(t, OutcomeRejected, res.Outcome)
			require.NotNil(t, res.Reason)
			assert.Contains(t, res.Reason.Fields, tc.key)
		})
	}
}

func TestRecordService_ExtremeExponents(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	create := func(t *testing.T, f map[string]interface{}) *CreateResult {
		t.Helper()
		done := make(chan *CreateResult, 1)
		go func() {
			res, err := svc.CreateFromFields(ctx, f)
			assert.NoError(t, err)
			done <- &res
		}()
		select {
		case res := <-done:
			require.NotNil(t, res)
			return res
		case <-time.After(2 * time.Second):
			t.Fatal("validation did not finish")
			return nil
		}
	}

	t.Run("光圈超大指数被拒绝", func(t *testing.T) {
		res := create(t, withField("aperture", json.Number("1e20000000")))
		assert.Equal(t, OutcomeRejected, res.Outcome)
		assert.Contains(t, res.Reason.Fields, "aperture")
	})

	t.Run("纬度超大指数被拒绝", func(t *testing.T) {
		res := create(t, withField("latitude", json.Number("1e20000000")))
		assert.Equal(t, OutcomeRejected, res.Outcome)
		assert.Contains(t, res.Reason.Fields, "latitude")
	})

	t.Run("零乘超大指数视为零", func(t *testing.T) {
		f := withField("latitude", "0e20000000")
		f["filename"] = "zero.jpg"
		res := create(t, f)
		require.Equal(t, OutcomeInserted, res.Outcome, "%v", res.Reason)
		require.True(t, res.Record.Latitude.Valid)
		assert.True(t, res.Record.Latitude.Decimal.IsZero())
	})

	t.Run("末尾零不计入小数位", func(t *testing.T) {
		f := withField("aperture", "99.900000")
		f["filename"] = "max.jpg"
		res := create(t, f)
		require.Equal(t, OutcomeInserted, res.Outcome, "%v", res.Reason)
		assert.Equal(t, "99.9", res.Record.Aperture.Decimal.String())
	})
}

func TestRecordService_OptionalFields(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	f := baseFields()
	f["aperture"] = "2.80"
	f["focal_length"] = json.Number("35")
	f["iso"] = "200"
	f["longitude"] = ""
	f["capture_date"] = "2024-06-01T10:30"
	f["camera_make"] = "  Canon "

	res, err := svc.CreateFromFields(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeInserted, res.Outcome, "%v", res.Reason)

	got, err := svc.Get(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.8").Equal(got.Aperture.Decimal))
	require.NotNil(t, got.ISO)
	assert.Equal(t, 200, *got.ISO)
	assert.False(t, got.Longitude.Valid)
	assert.Equal(t, "Canon", got.CameraMake)
	require.NotNil(t, got.CaptureDate)
	assert.Equal(t, 2024, got.CaptureDate.Year())
}

func TestRecordService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	first, err := svc.CreateFromFields(ctx, baseFields())
	require.NoError(t, err)
	second, err := svc.CreateFromFields(ctx, withField("filename", "b.jpg"))
	require.NoError(t, err)

	t.Run("更新成功且创建时间不变", func(t *testing.T) {
		f := withField("description", "sunset")
		f["created_date"] = "1999-01-01T00:00:00Z"
		updated, err := svc.UpdateFromFields(ctx, first.Record.ID, f)
		require.NoError(t, err)
		assert.Equal(t, "sunset", updated.Description)
		assert.True(t, first.Record.CreatedDate.Equal(updated.CreatedDate))
	})

	t.Run("与其他记录冲突", func(t *testing.T) {
		_, err := svc.UpdateFromFields(ctx, second.Record.ID, baseFields())
		assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateKey))
	})

	t.Run("记录不存在", func(t *testing.T) {
		_, err := svc.UpdateFromFields(ctx, 9999, baseFields())
		assert.True(t, apperrors.Is(err, apperrors.ErrRecordNotFound))
	})

	t.Run("校验失败", func(t *testing.T) {
		_, err := svc.UpdateFromFields(ctx, first.Record.ID, withField("latitude", "95"))
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})

	t.Run("记录不存在优先于字段错误", func(t *testing.T) {
		_, err := svc.UpdateFromFields(ctx, 9999, withField("owner", "alice"))
		assert.True(t, apperrors.Is(err, apperrors.ErrRecordNotFound))
	})

	t.Run("返回值与数据库一致", func(t *testing.T) {
		updated, err := svc.UpdateFromFields(ctx, first.Record.ID, withField("aperture", "4.0"))
		require.NoError(t, err)
		got, err := svc.Get(ctx, first.Record.ID)
		require.NoError(t, err)
		assert.True(t, got.Aperture.Decimal.Equal(updated.Aperture.Decimal))
		assert.Equal(t, "4", updated.Aperture.Decimal.String())
	})
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	res, err := svc.CreateFromFields(ctx, baseFields())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, res.Record.ID))
	assert.True(t, apperrors.Is(svc.Delete(ctx, res.Record.ID), apperrors.ErrRecordNotFound))

	_, err = svc.Get(ctx, res.Record.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrRecordNotFound))

	// 物理删除后可以重新插入相同的记录
	again, err := svc.CreateFromFields(ctx, baseFields())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, again.Outcome)
}

func TestRecordService_Search(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewRecordService(db)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []database.PhotoMetadata{
		{Filename: "beach.jpg", Format: "JPEG", FileSize: 1, Width: 1, Height: 1, CameraMake: "Canon", CreatedDate: base},
		{Filename: "city.png", Format: "PNG", FileSize: 2, Width: 1, Height: 1, Tags: "Ночь, город", CreatedDate: base.Add(time.Hour)},
		{Filename: "forest.gif", Format: "GIF", FileSize: 3, Width: 1, Height: 1, Description: "Misty CANONical trees", CreatedDate: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "forest.gif", all[0].Filename)
	assert.Equal(t, "beach.jpg", all[2].Filename)

	canon, err := svc.Search(ctx, "canon")
	require.NoError(t, err)
	require.Len(t, canon, 2)
	assert.Equal(t, "forest.gif", canon[0].Filename)
	assert.Equal(t, "beach.jpg", canon[1].Filename)

	night, err := svc.Search(ctx, "НОЧЬ")
	require.NoError(t, err)
	require.Len(t, night, 1)
	assert.Equal(t, "city.png", night[0].Filename)

	none, err := svc.Search(ctx, "mountain")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordService_FindByKey(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	res, err := svc.CreateFromFields(ctx, baseFields())
	require.NoError(t, err)

	found, err := svc.FindByKey(ctx, res.Record.Key())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, res.Record.ID, found.ID)

	key := res.Record.Key()
	key.Height = 101
	missing, err := svc.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(setupTestDB(t))

	for _, f := range []map[string]interface{}{
		withField("tags", "sea, Summer"),
		withField("filename", "b.jpg"),
		func() map[string]interface{} {
			f := withField("format", "PNG")
			f["tags"] = "summer,city"
			return f
		}(),
	} {
		res, err := svc.CreateFromFields(ctx, f)
		require.NoError(t, err)
		require.Equal(t, OutcomeInserted, res.Outcome)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRecords)
	assert.Equal(t, int64(3000), stats.TotalSize)
	assert.Equal(t, int64(2), stats.FormatStats["JPEG"])
	assert.Equal(t, int64(1), stats.FormatStats["PNG"])
	require.NotEmpty(t, stats.TopTags)
	assert.Equal(t, TagCount{Tag: "Summer", Count: 2}, stats.TopTags[0])
}
