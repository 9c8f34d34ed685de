package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/flatpool/flatpool/internal/errs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	return NewHandler(nil, nil).Router(nil)
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	testRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ok"`)
}

func TestActorRequired(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/households", nil)
	testRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "X-Actor-ID")
}

func TestInvalidBodyIsBadRequest(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/households"},
		{http.MethodPost, "/api/v1/households/join"},
		{http.MethodPost, "/api/v1/households/abc/obligations"},
		{http.MethodPost, "/api/v1/households/abc/dues/pay"},
	}

	router := testRouter()
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{not json"))
		req.Header.Set("X-Actor-ID", "alice")
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestInvalidDueDateIsBadRequest(t *testing.T) {
	body := `{
		"title": "Rent",
		"totalAmount": "900",
		"dueDate": "not-a-date",
		"category": "rent",
		"splitMethod": "equal",
		"participants": [{"memberId": "alice"}]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/households/abc/obligations", strings.NewReader(body))
	req.Header.Set("X-Actor-ID", "alice")
	req.Header.Set("Content-Type", "application/json")
	testRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "due date")
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", errs.InvalidInput("bad"), http.StatusBadRequest},
		{"forbidden", errs.Forbidden("no"), http.StatusForbidden},
		{"not found", errs.NotFound("gone"), http.StatusNotFound},
		{"conflict", errs.Conflict("raced"), http.StatusConflict},
		{"unavailable", errs.Unavailable("down"), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("pq: connection refused at 10.0.0.3"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "10.0.0.3")
	require.Contains(t, w.Body.String(), "internal error")
}
