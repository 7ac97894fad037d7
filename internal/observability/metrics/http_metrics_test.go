package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonDeadlineExceeded},
		{name: "not_found", err: gorm.ErrRecordNotFound, want: ReasonNotFound},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: ReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: ReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "pg_unique_violation", err: &pgconn.PgError{Code: "23505"}, want: ReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestGinMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{ServiceName: "tradebook", Environment: "test"})

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/health", "200"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestRecordExportFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{})

	m.RecordExportFailure("invoice", gorm.ErrRecordNotFound)

	got := testutil.ToFloat64(m.exportFailures.WithLabelValues("invoice", ReasonNotFound))
	if got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}
