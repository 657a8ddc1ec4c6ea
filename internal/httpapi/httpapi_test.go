package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow-engine/internal/auth"
	"dealflow-engine/internal/config"
	"dealflow-engine/internal/discovery"
	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/events"
	"dealflow-engine/internal/store"
)

const (
	testSecret = "test-secret"
	testIssuer = "dealflow"
)

type fakeSearcher struct {
	calls atomic.Int32
	ws    string
	res   discovery.Result
	err   error
}

func (f *fakeSearcher) Run(_ context.Context, ws string, _ domain.SearchRequest) (discovery.Result, error) {
	f.calls.Add(1)
	f.ws = ws
	return f.res, f.err
}

type fakeStore struct {
	ws      string
	opts    store.ListListingsOpts
	items   []domain.Listing
	pingErr error
}

func (f *fakeStore) ListListings(_ context.Context, ws string, opts store.ListListingsOpts) ([]domain.Listing, error) {
	f.ws, f.opts = ws, opts
	return f.items, nil
}
func (f *fakeStore) Ping(context.Context) error       { return f.pingErr }
func (f *fakeStore) Checkpoint(context.Context) error { return nil }

type harness struct {
	handler    http.Handler
	searcher   *fakeSearcher
	store      *fakeStore
	hub        *events.Hub
	factoryN   atomic.Int32
	factoryErr error
	secretSet  map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		searcher:  &fakeSearcher{},
		store:     &fakeStore{},
		hub:       events.NewHub(),
		secretSet: map[string]string{},
	}
	cfgVal := &atomic.Value{}
	cfgVal.Store(config.Default())

	d := Deps{
		Store:  h.store,
		Hub:    h.hub,
		Auth:   auth.NewVerifier(testSecret, testIssuer),
		Log:    zerolog.Nop(),
		CfgVal: cfgVal,
		NewSearcher: func(config.Config) (Searcher, error) {
			h.factoryN.Add(1)
			if h.factoryErr != nil {
				return nil, h.factoryErr
			}
			return h.searcher, nil
		},
		SetSecret: func(name, value string) error {
			h.secretSet[name] = value
			return nil
		},
	}
	h.handler = NewHandler(NewMux(d), d)
	return h
}

func token(t *testing.T, ws string) string {
	t.Helper()
	tok, err := auth.Sign(testSecret, testIssuer, "user-1", ws, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

const validBody = `{"industries":["HVAC"],"location":"Austin, TX","radius_miles":25}`

func TestSearchRequiresToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeErr(t, rec).Error.Code)

	rec = h.do(http.MethodPost, "/api/off-market/search", validBody, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, h.factoryN.Load())
}

func TestSearchWithoutWorkspaceIsForbidden(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, token(t, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, h.factoryN.Load())
}

func TestSearchValidationHappensBeforeAnyWork(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"radius not offered": {`{"industries":["HVAC"],"location":"Austin, TX","radius_miles":12}`, "radius_miles"},
		"location no region": {`{"industries":["HVAC"],"location":"Austin","radius_miles":25}`, "location"},
		"no industries":      {`{"industries":[],"location":"Austin, TX","radius_miles":25}`, "industries"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.factoryErr = domain.ErrNotConfigured

			rec := h.do(http.MethodPost, "/api/off-market/search", tc.body, token(t, "ws-1"))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeErr(t, rec)
			assert.Equal(t, "validation_error", e.Error.Code)
			assert.Equal(t, tc.field, e.Error.Field)
			assert.Zero(t, h.factoryN.Load())
			assert.Zero(t, h.searcher.calls.Load())
		})
	}
}

func TestSearchRejectsUnknownFields(t *testing.T) {
	h := newHarness(t)
	body := `{"industries":["HVAC"],"location":"Austin, TX","radius_miles":25,"extra":1}`

	rec := h.do(http.MethodPost, "/api/off-market/search", body, token(t, "ws-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeErr(t, rec).Error.Code)
}

func TestSearchMissingCredentials(t *testing.T) {
	h := newHarness(t)
	h.factoryErr = fmt.Errorf("PLACES_API_KEY: %w", domain.ErrNotConfigured)

	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, token(t, "ws-1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "not_configured", decodeErr(t, rec).Error.Code)
	assert.Zero(t, h.searcher.calls.Load())
}

func TestSearchErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", domain.ErrGeocode), http.StatusBadGateway, "geocode_failed"},
		{fmt.Errorf("x: %w", domain.ErrPersist), http.StatusInternalServerError, "persist_failed"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			h := newHarness(t)
			h.searcher.err = tc.err

			rec := h.do(http.MethodPost, "/api/off-market/search", validBody, token(t, "ws-1"))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeErr(t, rec).Error.Code)
		})
	}
}

func TestSearchSuccessPublishesToWorkspace(t *testing.T) {
	h := newHarness(t)
	h.searcher.res = discovery.Result{
		Listings: []domain.Listing{{ID: 1, CompanyName: "Acme Air", Tier: domain.TierA}},
		Funnel:   domain.Funnel{KeywordsUsed: []string{"hvac"}, MergedResults: 11, DedupedResults: 8, Kept: 1},
	}
	mine := h.hub.Subscribe("ws-1")
	other := h.hub.Subscribe("ws-2")
	defer h.hub.Unsubscribe(mine)
	defer h.hub.Unsubscribe(other)

	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, token(t, "ws-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-1", h.searcher.ws)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["count"])
	assert.Len(t, body["companies"], 1)
	debug := body["debug"].(map[string]any)
	assert.EqualValues(t, 11, debug["merged_results"])
	assert.EqualValues(t, 1, debug["kept"])

	require.Len(t, mine, 1)
	assert.Contains(t, <-mine, events.TypeSearchCompleted)
	assert.Len(t, other, 0)
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	h := newHarness(t)
	h.searcher.res = discovery.Result{Listings: []domain.Listing{}, Funnel: domain.Funnel{KeywordsUsed: []string{"hvac"}}}

	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, token(t, "ws-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, mustField(t, rec, "companies"))
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return string(body[key])
}

func TestSearchWrongMethod(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/off-market/search", "", token(t, "ws-1"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListCompanies(t *testing.T) {
	h := newHarness(t)
	h.store.items = []domain.Listing{{ID: 3, CompanyName: "Acme"}}

	rec := h.do(http.MethodGet, "/api/off-market/companies?tier=a&saved=true&limit=5", "", token(t, "ws-9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-9", h.store.ws)
	assert.Equal(t, store.ListListingsOpts{Tier: "A", SavedOnly: true, Limit: 5}, h.store.opts)
	assert.Equal(t, "1", mustField(t, rec, "count"))
}

func TestListCompaniesBadTier(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/off-market/companies?tier=Z", "", token(t, "ws-9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "tier", decodeErr(t, rec).Error.Field)
}

func TestSetSecret(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/secrets/PLACES_API_KEY", `{"value":"k-123"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "k-123", h.secretSet["PLACES_API_KEY"])

	rec = h.do(http.MethodPost, "/api/secrets/SOMETHING_ELSE", `{"value":"x"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/api/secrets/REVIEW_API_KEY", `{"value":"  "}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalOnlyRoutesRejectRemoteCallers(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/secrets/PLACES_API_KEY", strings.NewReader(`{"value":"k"}`))
	req.RemoteAddr = "203.0.113.7:4000"
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, h.secretSet)
}

func TestConfigGetAndValidate(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/config", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 15, cfg.Discovery.TargetMax)

	rec = h.do(http.MethodGet, "/config/validate", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var vr config.Validation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vr))
	assert.True(t, vr.OK())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.store.pingErr = errors.New("db gone")
	rec = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/off-market/search", validBody, "")
	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, decodeErr(t, rec).Error.RequestID)
}

func TestRecoverWritesEnvelope(t *testing.T) {
	hnd := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID, Recover(zerolog.Nop()))

	rec := httptest.NewRecorder()
	hnd.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeErr(t, rec).Error.Code)
}
