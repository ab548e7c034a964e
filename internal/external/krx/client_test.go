package krx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/httputil"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

func TestParseKRXNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"71,500", 71500},
		{"5,969,782,550", 5969782550},
		{"-1,200", -1200},
		{"-", 0},
		{"", 0},
		{" 42 ", 42},
	}

	for _, tt := range tests {
		if got := parseKRXNumber(tt.in); got != tt.want {
			t.Errorf("parseKRXNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseKRXFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.53", 12.53},
		{"1,234.5", 1234.5},
		{"-", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseKRXFloat(tt.in); got != tt.want {
			t.Errorf("parseKRXFloat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// newTestClient points a Client at a stub KRX portal
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := httputil.New(logger.Discard(), 1000).DisableRetry()
	return NewClient(httpClient, logger.Discard(), srv.URL)
}

// stubScreens routes getJsonData.cmd calls by their bld screen code
func stubScreens(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comm/bldAttendant/getJsonData.cmd" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, ok := responses[r.FormValue("bld")]
		if !ok {
			t.Errorf("unexpected bld %q", r.FormValue("bld"))
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}
