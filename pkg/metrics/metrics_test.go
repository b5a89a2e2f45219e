package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsTransfers(t *testing.T) {
	r := NewRecorder()
	r.ObserveTransfer("evm->svm", "completed")
	r.ObserveTransfer("evm->svm", "completed")
	r.ObserveTransfer("evm->evm", "failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.transfers.WithLabelValues("evm->svm", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transfers.WithLabelValues("evm->evm", "failed")))
}

func TestRecorder_FeeQuoteAndHTTP(t *testing.T) {
	r := NewRecorder()
	r.ObserveFeeQuote("evm", 120*time.Millisecond, nil)
	r.ObserveFeeQuote("svm", time.Second, errors.New("simulate failed"))
	r.ObserveHTTP("POST", "/api/v1/transfers", 201, 3*time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(r.feeQuote))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("POST", "/api/v1/transfers", "201")))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveTransfer("evm->evm", "completed")
		r.ObserveFeeQuote("evm", time.Second, nil)
		r.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveTransfer("svm->evm", "completed")

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ccip_relay_transfers_total{route="svm->evm",status="completed"} 1`)
}
