package dxapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/mocks"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("portal.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "portal.example.com", u.Host)

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:1234", u.String())

	_, err = parseBaseURL("  ")
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, tokens, 5*time.Second)
	require.NoError(t, err)
	return client
}

func TestFetchSendsAuthorizedGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenSource(ctrl)
	tokens.EXPECT().AccessToken(gomock.Any()).Return("tok-123", nil)

	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"deviceID":"d-1"}]`)
	}, tokens)

	raw, err := client.Fetch(context.Background(), datacache.NewKey("PatientTest?startDate=20240101&endDate=20240107", "bust"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"deviceID":"d-1"}]`, string(raw))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/PatientTest", got.URL.Path)
	assert.Equal(t, "20240101", got.URL.Query().Get("startDate"))
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Equal(t, defaultUserAgent, got.Header.Get("User-Agent"))
}

func TestDoMethodAndBodyDefaults(t *testing.T) {
	tests := []struct {
		name       string
		cfg        RequestConfig
		wantMethod string
		wantBody   string
	}{
		{"no body is get", RequestConfig{}, http.MethodGet, ""},
		{"body is post", RequestConfig{Body: map[string]string{"a": "b"}}, http.MethodPost, `{"a":"b"}`},
		{"explicit method wins", RequestConfig{Method: "put", Body: map[string]bool{"read": true}}, http.MethodPut, `{"read":true}`},
		{"delete without body", RequestConfig{Method: http.MethodDelete}, http.MethodDelete, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotMethod, gotBody string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				w.WriteHeader(http.StatusOK)
			}, nil)

			raw, err := client.Do(context.Background(), "facility/save", tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, "null", string(raw))
			assert.Equal(t, tc.wantMethod, gotMethod)
			if tc.wantBody == "" {
				assert.Empty(t, gotBody)
			} else {
				assert.JSONEq(t, tc.wantBody, gotBody)
			}
		})
	}
}

func TestDoMergesCallerHeaders(t *testing.T) {
	var gotType, gotCustom string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Portal-Screen")
		_, _ = io.WriteString(w, `{}`)
	}, nil)

	_, err := client.Do(context.Background(), "device", RequestConfig{Headers: map[string]string{
		"Content-Type":    "application/json; charset=utf-8",
		"X-Portal-Screen": "Systems",
	}})
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", gotType)
	assert.Equal(t, "Systems", gotCustom)
}

func TestUnauthorizedWithTokenIsDistinct(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenSource(ctrl)
	tokens.EXPECT().AccessToken(gomock.Any()).Return("revoked", nil)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
	}, tokens)

	_, err := client.Fetch(context.Background(), datacache.NewKey("user"))
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, err, datacache.ErrUnauthorized)
}

func TestUnauthorizedWithoutTokenIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := client.Fetch(context.Background(), datacache.NewKey("user"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, IsUnauthorized(err))
}

func TestNonSuccessSurfacesJSONBody(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantBody    bool
	}{
		{"message field", http.StatusBadRequest, `{"message":"startDate is invalid"}`, "startDate is invalid", true},
		{"problem title", http.StatusConflict, `{"title":"Facility exists","status":409}`, "Facility exists", true},
		{"bare json string", http.StatusInternalServerError, `"boom"`, "boom", true},
		{"json without message", http.StatusInternalServerError, `{"code":7}`, genericFetchMessage, true},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, genericFetchMessage, false},
		{"empty body", http.StatusServiceUnavailable, ``, genericFetchMessage, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, nil)

			_, err := client.Do(context.Background(), "qc", RequestConfig{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, "/api/qc", apiErr.Endpoint)
			if tc.wantBody {
				assert.JSONEq(t, tc.body, string(apiErr.Body))
			} else {
				assert.Nil(t, apiErr.Body)
			}
		})
	}
}

func TestTokenFailureSkipsRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenSource(ctrl)
	idpErr := errors.New("login required")
	tokens.EXPECT().AccessToken(gomock.Any()).Return("", idpErr)

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, tokens)

	_, err := client.Fetch(context.Background(), datacache.NewKey("device"))
	assert.ErrorIs(t, err, idpErr)
	assert.Equal(t, int32(0), hits.Load())
}

func TestInvalidJSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"truncated":`)
	}, nil)

	_, err := client.Do(context.Background(), "device", RequestConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClientBacksCacheRetries(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "database offline"})
	}, nil)

	cache := datacache.New(client, datacache.Options{
		Retry:  datacache.RetryPolicy{MaxAttempts: 3, Backoff: datacache.NoBackoff},
		Logger: nil,
	})
	r, err := cache.Get(context.Background(), datacache.NewKey("device"))
	require.NoError(t, err)

	var apiErr *APIError
	require.ErrorAs(t, r.Err, &apiErr)
	assert.Equal(t, "database offline", apiErr.Message)
	assert.Equal(t, int32(3), hits.Load())
}
