package thingsboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   json.RawMessage
}

// fakeBackend serves a handful of endpoints and records every request.
type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	logins   int
	token    string
	server   *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{token: "token-1"}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"message":"Invalid username or password"}`))
			return
		}
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		writeJSON(w, loginResponse{Token: f.token, RefreshToken: "refresh"})
	})
	mux.HandleFunc("GET /api/auth/user", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id":       map[string]string{"id": "user-1", "entityType": "USER"},
			"tenantId": map[string]string{"id": "tenant-1", "entityType": "TENANT"},
			"email":    "tenant@example.com",
		})
	}))
	mux.HandleFunc("POST /api/customer", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": map[string]string{"id": "c-1", "entityType": "CUSTOMER"}})
	}))
	mux.HandleFunc("POST /api/device", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": map[string]string{"id": "d-1"}})
	}))
	mux.HandleFunc("DELETE /api/asset/{id}", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Requested item wasn't found!"}`))
		}
	}))
	mux.HandleFunc("POST /api/owner/{ownerType}/{ownerId}/{type}/{id}", f.authorized(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("POST /api/plugins/telemetry/{type}/{id}/attributes/{scope}", f.authorized(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("POST /api/plugins/telemetry/{type}/{id}/timeseries/{scope}", f.authorized(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("GET /api/plugins/telemetry/{type}/{id}/values/attributes/{scope}", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"key": "hierarchy-model", "value": "{}", "lastUpdateTs": 1}})
	}))
	mux.HandleFunc("POST /api/relation", f.authorized(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("POST /api/relations/info", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{
			"from":   map[string]string{"id": "tenant-1", "entityType": "TENANT"},
			"to":     map[string]string{"id": "c-1", "entityType": "CUSTOMER"},
			"type":   "hasRegion",
			"toName": "North",
		}})
	}))

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get(authHeader),
			Body:   body,
		})
		f.mu.Unlock()
		r.Body = http.NoBody
		if len(body) > 0 {
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		want := "Bearer " + f.token
		f.mu.Unlock()
		if r.Header.Get(authHeader) != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeBackend) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(f *fakeBackend) *Client {
	return NewClient(Options{BaseURL: f.server.URL, Username: "tenant@example.com", Password: "secret"}, zap.NewNop())
}

func TestClient_Auth(t *testing.T) {
	ctx := context.Background()

	t.Run("logs in on first use", func(t *testing.T) {
		f := newFakeBackend(t)
		client := newTestClient(f)

		tenant, err := client.CurrentTenantID(ctx)

		require.NoError(t, err)
		assert.Equal(t, entities.EntityRef{ID: "tenant-1", EntityType: entities.EntityTenant}, tenant)
		assert.Equal(t, 1, f.loginCount())
		assert.Equal(t, "Bearer token-1", f.last().Auth)
	})

	t.Run("tenant is cached", func(t *testing.T) {
		f := newFakeBackend(t)
		client := newTestClient(f)

		_, err := client.CurrentTenantID(ctx)
		require.NoError(t, err)
		_, err = client.CurrentTenantID(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, f.requestCount())
	})

	t.Run("expired token is renewed once", func(t *testing.T) {
		f := newFakeBackend(t)
		client := NewClient(Options{
			BaseURL:  f.server.URL,
			Username: "tenant@example.com",
			Password: "secret",
			Token:    "expired",
		}, zap.NewNop())

		_, err := client.CreateCustomer(ctx, entities.EntityDraft{Name: "Region (1)"})

		require.NoError(t, err)
		assert.Equal(t, 1, f.loginCount())
	})

	t.Run("static token without credentials", func(t *testing.T) {
		f := newFakeBackend(t)
		client := NewClient(Options{BaseURL: f.server.URL, Token: "token-1"}, zap.NewNop())

		_, err := client.CurrentTenantID(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, f.loginCount())
	})

	t.Run("bad password", func(t *testing.T) {
		f := newFakeBackend(t)
		client := NewClient(Options{BaseURL: f.server.URL, Username: "tenant@example.com", Password: "wrong"}, zap.NewNop())

		_, err := client.CurrentTenantID(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid username or password")
	})

	t.Run("login needs credentials", func(t *testing.T) {
		client := NewClient(Options{BaseURL: "http://unused"}, zap.NewNop())
		assert.IsType(t, &errors.ValidationError{}, client.Login(ctx))
	})
}

func TestClient_Entities(t *testing.T) {
	ctx := context.Background()
	f := newFakeBackend(t)
	client := newTestClient(f)

	customer, err := client.CreateCustomer(ctx, entities.EntityDraft{Name: "Region (1)", Email: "customer-email1@site.net"})
	require.NoError(t, err)
	assert.Equal(t, entities.EntityRef{ID: "c-1", EntityType: entities.EntityCustomer}, customer)
	assert.JSONEq(t, `{"title":"Region (1)","email":"customer-email1@site.net"}`, string(f.last().Body))

	device, err := client.CreateDevice(ctx, entities.EntityDraft{Name: "Sensor (1)", Type: "Sensor", Label: "Sensor"})
	require.NoError(t, err)
	assert.Equal(t, entities.EntityDevice, device.EntityType, "missing entity type falls back to the requested one")
	assert.JSONEq(t, `{"name":"Sensor (1)","type":"Sensor","label":"Sensor"}`, string(f.last().Body))

	require.NoError(t, client.ChangeOwner(ctx, customer, device))
	assert.Equal(t, "/api/owner/CUSTOMER/c-1/DEVICE/d-1", f.last().Path)

	err = client.DeleteAsset(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Requested item wasn't found!", apiErr.Message)
}

func TestClient_Telemetry(t *testing.T) {
	ctx := context.Background()
	f := newFakeBackend(t)
	client := newTestClient(f)
	ref := entities.EntityRef{ID: "d-1", EntityType: entities.EntityDevice}

	err := client.SaveAttributes(ctx, ref, entities.ScopeServer, []entities.AttributeKV{
		{Key: "serial", Value: "Attribute name 1"},
		{Key: "floors", Value: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/plugins/telemetry/DEVICE/d-1/attributes/SERVER_SCOPE", f.last().Path)
	assert.JSONEq(t, `{"serial":"Attribute name 1","floors":3}`, string(f.last().Body))

	err = client.SaveTimeseries(ctx, ref, entities.ScopeAny, []entities.TimeseriesPoint{
		{Ts: 2000, Key: "temperature", Value: 21},
		{Ts: 1000, Key: "temperature", Value: 20},
		{Ts: 1000, Key: "humidity", Value: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/plugins/telemetry/DEVICE/d-1/timeseries/ANY", f.last().Path)
	assert.JSONEq(t, `[{"ts":1000,"values":{"temperature":20,"humidity":50}},{"ts":2000,"values":{"temperature":21}}]`,
		string(f.last().Body))

	tenant := entities.EntityRef{ID: "tenant-1", EntityType: entities.EntityTenant}
	kvs, err := client.GetAttributes(ctx, tenant, entities.ScopeServer, []string{"hierarchy-model"})
	require.NoError(t, err)
	assert.Equal(t, "keys=hierarchy-model", f.last().Query)
	require.Len(t, kvs, 1)
	assert.Equal(t, "{}", kvs[0].Value)
}

func TestClient_Relations(t *testing.T) {
	ctx := context.Background()
	f := newFakeBackend(t)
	client := newTestClient(f)
	tenant := entities.EntityRef{ID: "tenant-1", EntityType: entities.EntityTenant}
	customer := entities.EntityRef{ID: "c-1", EntityType: entities.EntityCustomer}

	require.NoError(t, client.SaveRelation(ctx, entities.NewRelation(tenant, customer, "hasRegion")))
	assert.JSONEq(t, `{
		"from": {"id": "tenant-1", "entityType": "TENANT"},
		"to": {"id": "c-1", "entityType": "CUSTOMER"},
		"type": "hasRegion",
		"typeGroup": "COMMON"
	}`, string(f.last().Body))

	infos, err := client.FindInfoByQuery(ctx, entities.RelationsQuery{
		RootID:       "tenant-1",
		RootType:     entities.EntityTenant,
		Direction:    entities.DirectionFrom,
		MaxLevel:     1,
		RelationType: "hasRegion",
		TargetTypes:  []entities.EntityType{entities.EntityCustomer},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"parameters": {"rootId": "tenant-1", "rootType": "TENANT", "direction": "FROM", "maxLevel": 1},
		"filters": [{"relationType": "hasRegion", "entityTypes": ["CUSTOMER"]}]
	}`, string(f.last().Body))
	assert.Equal(t, []entities.RelationInfo{{To: customer, ToName: "North"}}, infos)
}

func TestClient_Canceled(t *testing.T) {
	f := newFakeBackend(t)
	client := NewClient(Options{BaseURL: f.server.URL, Token: "token-1"}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CurrentTenantID(ctx)

	var canceled *errors.CanceledError
	assert.ErrorAs(t, err, &canceled)
}
