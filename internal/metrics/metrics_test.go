package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCalculation(t *testing.T) {
	CalculationsTotal.Reset()
	before := testutil.ToFloat64(MinimumChargesTotal)

	RecordCalculation("Carro", "Flex", 64, true)
	RecordCalculation("Carro", "Flex", 300, false)
	RecordCalculation("Ônibus", "Diesel", 500, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(CalculationsTotal.WithLabelValues("Carro", "Flex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CalculationsTotal.WithLabelValues("Ônibus", "Diesel")))
	assert.Equal(t, before+1, testutil.ToFloat64(MinimumChargesTotal))
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST /api/v1/calculate", http.StatusOK, 3*time.Millisecond)
	RecordHTTPRequest("POST /api/v1/calculate", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST /api/v1/calculate", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST /api/v1/calculate", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordTransitionAndGRPC(t *testing.T) {
	WizardTransitionsTotal.Reset()
	GRPCRequestsTotal.Reset()

	RecordTransition("payment")
	RecordTransition("payment")
	RecordGRPCRequest("Calculate", "OK")

	assert.Equal(t, 2.0, testutil.ToFloat64(WizardTransitionsTotal.WithLabelValues("payment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GRPCRequestsTotal.WithLabelValues("Calculate", "OK")))
}
