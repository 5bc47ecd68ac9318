package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware)
	e.GET("/books/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, target := range []string{"/books/1", "/books/2", "/books/0"} {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/books/:id", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/books/:id", "404")))
	require.Equal(t, 0.0, testutil.ToFloat64(httpInFlight))
}

func TestRecorders(t *testing.T) {
	RecordChatIntent("qa")
	RecordChatIntent("qa")
	require.Equal(t, 2.0, testutil.ToFloat64(chatIntents.WithLabelValues("qa")))

	SetOverdueRecords(3)
	require.Equal(t, 3.0, testutil.ToFloat64(overdueRecords))

	RecordLLMCall("generate", 20*time.Millisecond, nil)
	RecordLLMCall("generate", time.Second, errors.New("timeout"))
	require.Equal(t, 2, testutil.CollectAndCount(llmDuration))
}

func TestHandler(t *testing.T) {
	SetOverdueRecords(1)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "library_borrow_overdue_records 1")
}
