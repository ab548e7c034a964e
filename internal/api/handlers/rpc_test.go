package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// dispatchRaw posts a raw body to the RPC endpoint. The error paths below
// never reach the analyzer, so a nil analyzer is fine.
func dispatchRaw(t *testing.T, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	h := NewRPCHandler(nil, logger.Discard())
	req := httptest.NewRequest(http.MethodPost, "/api/stock_data", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Dispatch(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, env
}

func TestDispatchRejectsMalformedBody(t *testing.T) {
	rec, env := dispatchRaw(t, "{not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Error("envelope success = true, want false")
	}
	if env.Error == nil || env.Error.Message == "" {
		t.Error("envelope error message missing")
	}
}

func TestDispatchRejectsUnknownMethod(t *testing.T) {
	rec, env := dispatchRaw(t, `{"method":"getMoonPhase","params":{}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Error("envelope success = true, want false")
	}
	if env.Error == nil || !strings.Contains(env.Error.Message, "getMoonPhase") {
		t.Errorf("error message should name the method, got %+v", env.Error)
	}
}

func TestDispatchRequiresTicker(t *testing.T) {
	rec, env := dispatchRaw(t, `{"method":"getMarketData","params":{}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || !strings.Contains(env.Error.Message, "ticker") {
		t.Errorf("error message should name the missing parameter, got %+v", env.Error)
	}
}

func TestDispatchRejectsBlankTicker(t *testing.T) {
	rec, _ := dispatchRaw(t, `{"method":"searchPeers","params":{"ticker":"   "}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParamsDefaults(t *testing.T) {
	p := params{"years": float64(3), "growth": "not a number"}

	if got := p.intOr("years", 1); got != 3 {
		t.Errorf("intOr(years) = %d, want 3", got)
	}
	if got := p.intOr("days", 30); got != 30 {
		t.Errorf("intOr(days) = %d, want default 30", got)
	}
	if got := p.floatOr("growth", 10); got != 10 {
		t.Errorf("floatOr(growth) = %v, want default 10", got)
	}
}

func TestRespondJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, map[string]string{"ticker": "005930"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success || env.Status != http.StatusOK {
		t.Errorf("envelope = %+v, want success 200", env)
	}
	if env.Error != nil {
		t.Errorf("success envelope carries an error: %+v", env.Error)
	}
}
