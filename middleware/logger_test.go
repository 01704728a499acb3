package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsStatus(t *testing.T) {
	req := require.New(t)
	core, logs := observer.New(zap.InfoLevel)

	r := mux.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.HandleFunc("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot?x=1", nil))

	req.Equal(http.StatusTeapot, rec.Code)
	entries := logs.FilterMessage("request").All()
	req.Len(entries, 1)
	fields := entries[0].ContextMap()
	req.Equal("/teapot", fields["path"])
	req.Equal("x=1", fields["query"])
	req.EqualValues(http.StatusTeapot, fields["status"])
}

func TestRecovery_ReturnsServerError(t *testing.T) {
	req := require.New(t)
	core, logs := observer.New(zap.ErrorLevel)

	r := mux.NewRouter()
	r.Use(Recovery(zap.New(core)))
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	req.Equal(http.StatusInternalServerError, rec.Code)
	req.Equal(1, logs.FilterMessage("panic recovered").Len())
}
