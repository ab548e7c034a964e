package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// OHLCV fetches daily price bars for a ticker from the Naver chart API,
// ascending by date. Single-day lookups pass from == to.
// ⭐ SSOT: Naver 시세 차트 호출은 이 함수에서만
func (c *Client) OHLCV(ctx context.Context, ticker string, from, to time.Time) ([]contracts.OHLCVRow, error) {
	fullURL := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartBaseURL, ticker, from.Format("20060102"), to.Format("20060102"),
	)

	body, err := c.fetch(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch OHLCV for %s: %w", ticker, err)
	}

	rows, err := parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse OHLCV for %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(rows),
	}).Debug("Fetched prices")
	return rows, nil
}

// parsePriceResponse parses the siseJson body. The endpoint serves a
// single-quoted pseudo-JSON array; normalize quotes, decode, and fall back to
// regex extraction if the layout shifts.
func parsePriceResponse(body string) ([]contracts.OHLCVRow, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData)
	}

	return parsePriceRegex(body)
}

// parsePriceJSON parses the decoded array-of-arrays format
func parsePriceJSON(rawData [][]interface{}) ([]contracts.OHLCVRow, error) {
	var rows []contracts.OHLCVRow
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // header row
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		dateStr = strings.Trim(dateStr, "\"")
		tradeDate, err := parseChartDate(dateStr)
		if err != nil {
			continue
		}

		closePrice := toInt64(row[4])
		volume := toInt64(row[5])

		rows = append(rows, contracts.OHLCVRow{
			Date:         tradeDate,
			Open:         toInt64(row[1]),
			High:         toInt64(row[2]),
			Low:          toInt64(row[3]),
			Close:        closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return rows, nil
}

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)\]`)

// parsePriceRegex parses using regex (fallback)
func parsePriceRegex(body string) ([]contracts.OHLCVRow, error) {
	matches := priceRowRe.FindAllStringSubmatch(body, -1)

	var rows []contracts.OHLCVRow
	for _, match := range matches {
		if len(match) < 7 {
			continue
		}

		tradeDate, err := parseChartDate(match[1])
		if err != nil {
			continue
		}

		open, _ := strconv.ParseInt(match[2], 10, 64)
		high, _ := strconv.ParseInt(match[3], 10, 64)
		low, _ := strconv.ParseInt(match[4], 10, 64)
		closePrice, _ := strconv.ParseInt(match[5], 10, 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		rows = append(rows, contracts.OHLCVRow{
			Date:         tradeDate,
			Open:         open,
			High:         high,
			Low:          low,
			Close:        closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return rows, nil
}

// parseChartDate accepts YYYYMMDD or YYYY-MM-DD
func parseChartDate(s string) (time.Time, error) {
	if len(s) == 8 {
		return time.Parse("20060102", s)
	}
	return time.Parse("2006-01-02", s)
}

// toInt64 converts the chart API's mixed numeric types to int64
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}
