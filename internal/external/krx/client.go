package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/httputil"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// Client handles communication with the KRX data portal
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	// ticker -> full ISIN, resolved lazily via the KRX finder
	isinMu    sync.Mutex
	isinCache map[string]string
}

// NewClient creates a new KRX client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://data.krx.co.kr"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		isinCache:  make(map[string]string),
	}
}

// marketID maps a segment onto the KRX market code
func marketID(segment contracts.Segment) (string, error) {
	switch segment {
	case contracts.SegmentKOSPI:
		return "STK", nil
	case contracts.SegmentKOSDAQ:
		return "KSQ", nil
	case contracts.SegmentKONEX:
		return "KNX", nil
	default:
		return "", fmt.Errorf("unsupported segment: %s", segment)
	}
}

// getJSON posts a form to the KRX screen-data endpoint and decodes the body
// into dest. KRX blocks bot requests, so browser-like headers are required.
func (c *Client) getJSON(ctx context.Context, formData url.Values, dest interface{}) error {
	krxURL := c.baseURL + "/comm/bldAttendant/getJsonData.cmd"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, krxURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: KRX request: %v", contracts.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read KRX response: %v", contracts.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return fmt.Errorf("%w: KRX returned status %d: %s", contracts.ErrUpstream, resp.StatusCode, preview)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500]
		}
		c.logger.WithField("response_preview", preview).Error("Failed to parse KRX response")
		return fmt.Errorf("%w: decode KRX response: %v", contracts.ErrUpstream, err)
	}

	return nil
}

// finderResponse is the KRX instrument finder response
type finderResponse struct {
	Block1 []struct {
		FullCode  string `json:"full_code"`
		ShortCode string `json:"short_code"`
	} `json:"block1"`
}

// resolveISIN resolves a short ticker to the full ISIN required by the
// per-instrument KRX screens. Results are cached for the process lifetime.
func (c *Client) resolveISIN(ctx context.Context, ticker string) (string, error) {
	c.isinMu.Lock()
	if isin, ok := c.isinCache[ticker]; ok {
		c.isinMu.Unlock()
		return isin, nil
	}
	c.isinMu.Unlock()

	formData := url.Values{
		"bld":         {"dbms/comm/finder/finder_stkisu"},
		"locale":      {"ko_KR"},
		"mktsel":      {"ALL"},
		"typeNo":      {"0"},
		"searchText":  {ticker},
		"csvxls_isNo": {"false"},
	}

	var resp finderResponse
	if err := c.getJSON(ctx, formData, &resp); err != nil {
		return "", fmt.Errorf("ISIN lookup for %s: %w", ticker, err)
	}

	for _, row := range resp.Block1 {
		if row.ShortCode == ticker {
			c.isinMu.Lock()
			c.isinCache[ticker] = row.FullCode
			c.isinMu.Unlock()
			return row.FullCode, nil
		}
	}

	return "", fmt.Errorf("%w: no ISIN for ticker %s", contracts.ErrNotFound, ticker)
}

// parseKRXNumber parses KRX number format (with commas) to int64
func parseKRXNumber(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseKRXFloat parses KRX decimal format (with commas) to float64
func parseKRXFloat(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
