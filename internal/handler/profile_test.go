package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/profile"
)

type fakeAggregator struct {
	enqueued     []int64
	sweepStarted bool
	sweepResult  bool
	stats        profile.Stats
}

func (f *fakeAggregator) Enqueue(customerID int64) bool {
	f.enqueued = append(f.enqueued, customerID)
	return true
}

func (f *fakeAggregator) StartSweep(context.Context) bool {
	f.sweepStarted = true
	return f.sweepResult
}

func (f *fakeAggregator) Stats() profile.Stats { return f.stats }

type fakeProfileStore struct {
	profiles map[int64]json.RawMessage
}

func (f *fakeProfileStore) Get(_ context.Context, customerID int64) (json.RawMessage, error) {
	p, ok := f.profiles[customerID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) Count(context.Context) (int64, error) {
	return int64(len(f.profiles)), nil
}

type fakeCounter struct{ n int64 }

func (f *fakeCounter) CountCustomers(context.Context) (int64, error) { return f.n, nil }

func newTestMux(agg *fakeAggregator, store *fakeProfileStore, counter *fakeCounter) *http.ServeMux {
	mux := http.NewServeMux()
	NewProfileHandler(agg, store, counter).Routes(mux)
	return mux
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAggregateQueuesTargetedRebuild(t *testing.T) {
	agg := &fakeAggregator{}
	mux := newTestMux(agg, &fakeProfileStore{}, &fakeCounter{})

	req := httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(`{"customer_id":42}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, []int64{42}, agg.enqueued)
	assert.False(t, agg.sweepStarted)
}

func TestAggregateWithoutCustomerStartsSweep(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"zero customer id", `{"customer_id":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{sweepResult: true}
			mux := newTestMux(agg, &fakeProfileStore{}, &fakeCounter{})

			req := httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusAccepted, rec.Code)
			assert.True(t, agg.sweepStarted)
			assert.Empty(t, agg.enqueued)
		})
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"negative customer id", `{"customer_id":-1}`, "INVALID_CUSTOMER_ID"},
		{"malformed json", `{"customer_id":`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{}
			mux := newTestMux(agg, &fakeProfileStore{}, &fakeCounter{})

			req := httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Empty(t, agg.enqueued)
			assert.False(t, agg.sweepStarted)
		})
	}
}

func TestGetProfile(t *testing.T) {
	store := &fakeProfileStore{profiles: map[int64]json.RawMessage{
		42: json.RawMessage(`{"customerId":42,"totalBalance":2500.75}`),
	}}
	mux := newTestMux(&fakeAggregator{}, store, &fakeCounter{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customerId":42,"totalBalance":2500.75}`, string(data))
}

func TestGetProfileErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"not stored", "/customers/99", http.StatusNotFound, "PROFILE_NOT_FOUND"},
		{"non-numeric id", "/customers/abc", http.StatusBadRequest, "INVALID_CUSTOMER_ID"},
		{"zero id", "/customers/0", http.StatusBadRequest, "INVALID_CUSTOMER_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&fakeAggregator{}, &fakeProfileStore{}, &fakeCounter{})

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestStats(t *testing.T) {
	agg := &fakeAggregator{stats: profile.Stats{BuildsCompleted: 5}}
	store := &fakeProfileStore{profiles: map[int64]json.RawMessage{1: nil, 2: nil}}
	mux := newTestMux(agg, store, &fakeCounter{n: 3})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), data["known_customers"])
	assert.Equal(t, float64(2), data["written_profiles"])
	builds, ok := data["builds"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), builds["buildsCompleted"])
}
