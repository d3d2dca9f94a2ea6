package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

func doRequest(t *testing.T, handlerErr error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(handlerErr) //nolint:errcheck
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestErrorHandler_AppError(t *testing.T) {
	w := doRequest(t, apperrors.ErrRegenLimitReached())

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	errBody := decodeError(t, w)
	require.Equal(t, apperrors.CodeRegenLimitReached, errBody["code"])
	require.Equal(t, "max 2 regenerations", errBody["message"])
}

func TestErrorHandler_WrappedAppError(t *testing.T) {
	w := doRequest(t, apperrors.ErrGenerationFailed(errors.New("bad json")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, apperrors.CodeGenerationFailed, decodeError(t, w)["code"])
}

func TestErrorHandler_UnknownError(t *testing.T) {
	w := doRequest(t, errors.New("plain failure"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := decodeError(t, w)
	require.Equal(t, apperrors.CodeInternal, errBody["code"])
	// Internal details never leak into the response.
	require.NotContains(t, errBody["message"], "plain failure")
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		require.NotEmpty(t, GetRequestID(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))

	// A caller-supplied id is preserved.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "rid-123")
	r.ServeHTTP(w, req)
	require.Equal(t, "rid-123", w.Header().Get(RequestIDHeader))
}
