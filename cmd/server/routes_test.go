package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccip-relay.backend/internal/infrastructure/blockchain"
	"ccip-relay.backend/internal/infrastructure/registry"
	"ccip-relay.backend/internal/infrastructure/repositories"
	"ccip-relay.backend/internal/interfaces/http/handlers"
	"ccip-relay.backend/internal/interfaces/http/middleware"
	"ccip-relay.backend/internal/usecases"
	"ccip-relay.backend/pkg/jwt"
	"ccip-relay.backend/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testRouter wires the real stack over a registry with no reachable chains.
func testRouter(t *testing.T, auth gin.HandlerFunc) *gin.Engine {
	t.Helper()
	chains, err := registry.New(map[string]string{"ethereum-sepolia": "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	clients := usecases.NewChainClients(blockchain.NewClientFactory(blockchain.WaitOptions{}))
	recorder := metrics.NewRecorder()
	dispatcher := usecases.NewTransferDispatcher(chains, repositories.NewMemoryTransferRepository(),
		blockchain.NewKeySignerProvider("", ""), clients, recorder)

	if auth == nil {
		auth = middleware.OperatorAuth(nil, "")
	}
	return newRouter(routeDeps{
		transferHandler: handlers.NewTransferHandler(dispatcher),
		chainHandler:    handlers.NewChainHandler(usecases.NewChainHealthUsecase(chains, clients)),
		operatorAuth:    auth,
		recorder:        recorder,
	})
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAPIV1Routes_RegistersRoutes(t *testing.T) {
	r := testRouter(t, nil)

	got := make(map[string]bool)
	for _, route := range r.Routes() {
		got[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /metrics",
		"POST /api/v1/transfers",
		"GET /api/v1/transfers",
		"GET /api/v1/transfers/:id",
		"GET /api/v1/chains",
		"GET /api/v1/chains/status",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestApplyCORSMiddleware(t *testing.T) {
	r := gin.New()
	applyCORSMiddleware(r)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/x", "", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodOptions, "/x", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRegisterHealthRoute(t *testing.T) {
	w := do(testRouter(t, nil), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsRoute_ExposesHTTPCounters(t *testing.T) {
	r := testRouter(t, nil)
	do(r, http.MethodGet, "/health", "", nil)

	w := do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ccip_relay_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestTransfers_UnknownChainIsRejectedWithoutRecord(t *testing.T) {
	r := testRouter(t, nil)

	body := `{"sourceChain":"base-sepolia","destinationChain":"ethereum-sepolia","receiver":"0x00000000000000000000000000000000000000aa","amount":"1","asset":"LINK"}`
	w := do(r, http.MethodPost, "/api/v1/transfers", body, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/transfers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transfers":[]}`, w.Body.String())
}

func TestTransfers_InvalidAmountIsBadRequest(t *testing.T) {
	body := `{"sourceChain":"ethereum-sepolia","destinationChain":"ethereum-sepolia","receiver":"0xabc","amount":"-1","asset":"LINK"}`
	w := do(testRouter(t, nil), http.MethodPost, "/api/v1/transfers", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfers_WriteRequiresOperator(t *testing.T) {
	auth := middleware.OperatorAuth(jwt.NewJWTService("secret", time.Hour), "")
	r := testRouter(t, auth)

	w := do(r, http.MethodPost, "/api/v1/transfers", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay open
	w = do(r, http.MethodGet, "/api/v1/transfers", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChains_ListsConfiguredOnly(t *testing.T) {
	w := do(testRouter(t, nil), http.MethodGet, "/api/v1/chains", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Chains []struct {
			ID string `json:"id"`
		} `json:"chains"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Chains, 1)
	assert.Equal(t, "ethereum-sepolia", body.Chains[0].ID)
	assert.NotContains(t, w.Body.String(), "127.0.0.1")
}
