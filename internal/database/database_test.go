package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/photometa/config"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	return db
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestPhotoIdentityUniqueIndex(t *testing.T) {
	db := openTestDB(t)

	first := PhotoMetadata{Filename: "IMG_1.jpg", Format: FormatJPEG, FileSize: 100, Width: 10, Height: 20}
	require.NoError(t, db.Create(&first).Error)
	assert.False(t, first.CreatedDate.IsZero())

	dup := PhotoMetadata{Filename: "IMG_1.jpg", Format: FormatJPEG, FileSize: 100, Width: 10, Height: 20}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 任一字段不同即不是重复
	other := PhotoMetadata{Filename: "IMG_1.jpg", Format: FormatPNG, FileSize: 100, Width: 10, Height: 20}
	require.NoError(t, db.Create(&other).Error)
}

func TestPhotoMetadata_DecimalRoundTrip(t *testing.T) {
	db := openTestDB(t)

	lat := decimal.RequireFromString("-33.856784")
	rec := PhotoMetadata{
		Filename: "opera.jpg", Format: FormatJPEG, FileSize: 1, Width: 1, Height: 1,
		Latitude: decimal.NullDecimal{Decimal: lat, Valid: true},
	}
	require.NoError(t, db.Create(&rec).Error)

	var got PhotoMetadata
	require.NoError(t, db.First(&got, rec.ID).Error)
	require.True(t, got.Latitude.Valid)
	assert.True(t, lat.Equal(got.Latitude.Decimal))
	assert.False(t, got.Aperture.Valid)
}

func TestCreatedDateIsImmutable(t *testing.T) {
	db := openTestDB(t)

	rec := PhotoMetadata{Filename: "a.jpg", Format: FormatJPEG, FileSize: 1, Width: 1, Height: 1}
	require.NoError(t, db.Create(&rec).Error)
	original := rec.CreatedDate

	rec.CreatedDate = original.AddDate(-1, 0, 0)
	rec.Description = "edited"
	require.NoError(t, db.Save(&rec).Error)

	var got PhotoMetadata
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.Equal(t, "edited", got.Description)
	assert.True(t, original.Equal(got.CreatedDate))
}
