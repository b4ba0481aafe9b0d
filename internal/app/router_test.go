package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kirana-pos/kirana/internal/auth"
	"github.com/kirana-pos/kirana/internal/catalog"
	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/internal/shared"
	"github.com/kirana-pos/kirana/jobs"
)

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := auth.NewTokenStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	token, err := store.Issue(t.Context(), shared.Principal{ID: 1, Role: "manager"})
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(RouterParams{
		Logger:         logger,
		TokenStore:     store,
		CatalogHandler: catalog.NewHandler(logger, nil, nil),
		LedgerHandler:  ledger.NewHandler(logger, nil),
		RefdataHandler: refdata.NewHandler(logger, nil),
		JobsHandler:    jobs.NewHandler(nil, nil, logger),
	})
	return router, token
}

func TestRouterPublicAndAuthedRoutes(t *testing.T) {
	router, token := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// Authenticated surface rejects anonymous callers.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/health", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}
