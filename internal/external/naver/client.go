package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/httputil"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	chartBaseURL string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, chartBaseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://finance.naver.com"
	}
	if chartBaseURL == "" {
		chartBaseURL = "https://fchart.stock.naver.com"
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      baseURL,
		chartBaseURL: chartBaseURL,
	}
}

// fetch performs a GET with the headers Naver expects and returns the body
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: naver request: %v", contracts.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: naver returned status %d", contracts.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read naver response: %v", contracts.ErrUpstream, err)
	}

	return body, nil
}
