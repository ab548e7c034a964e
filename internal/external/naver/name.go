package naver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// basicResponse is the mobile stock basic API response
type basicResponse struct {
	ItemCode  string `json:"itemCode"`
	StockName string `json:"stockName"`
}

// TickerName resolves the display name for a ticker via the mobile basic API
// ⭐ SSOT: 종목명 조회는 이 함수에서만
func (c *Client) TickerName(ctx context.Context, ticker string) (string, error) {
	fullURL := fmt.Sprintf("https://m.stock.naver.com/api/stock/%s/basic", ticker)

	body, err := c.fetch(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("fetch name for %s: %w", ticker, err)
	}

	var resp basicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode basic response for %s: %v", contracts.ErrUpstream, ticker, err)
	}

	if resp.StockName == "" {
		return "", fmt.Errorf("%w: no name for ticker %s", contracts.ErrNotFound, ticker)
	}

	return resp.StockName, nil
}
