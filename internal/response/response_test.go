package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccess_UsesRealTimestamp(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("trace_id", "abc")

	Success(c, gin.H{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(fixed.Unix()), body["timestamp"])
	assert.Equal(t, "abc", body["request_id"])
	assert.Equal(t, float64(0), body["code"])
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   float64
	}{
		{"校验失败", apperrors.New(apperrors.ErrValidation, "").WithFields("latitude"), http.StatusUnprocessableEntity, 4001},
		{"唯一键冲突", apperrors.New(apperrors.ErrDuplicateKey, ""), http.StatusConflict, 4002},
		{"记录不存在", apperrors.New(apperrors.ErrRecordNotFound, ""), http.StatusNotFound, 4006},
		{"扩展名错误", apperrors.New(apperrors.ErrUnsupportedExtension, ""), http.StatusUnsupportedMediaType, 2001},
		{"文件过大", apperrors.New(apperrors.ErrFileTooLarge, ""), http.StatusRequestEntityTooLarge, 2006},
		{"普通错误", stderrors.New("boom"), http.StatusInternalServerError, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode(t, w)["code"])
		})
	}
}

func TestFromError_LocalizedMessageAndFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(LangKey, "zh-CN")

	FromError(c, apperrors.New(apperrors.ErrValidation, "").WithFields("latitude", "filename"))

	body := decode(t, w)
	assert.Equal(t, "记录校验失败", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"latitude", "filename"}, data["fields"])
}
