package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// krxMarketCapResponse represents the KRX cap table response
type krxMarketCapResponse struct {
	OutBlock1 []krxMarketCapRow `json:"OutBlock_1"`
}

// krxMarketCapRow represents a row in the KRX cap table
type krxMarketCapRow struct {
	ISU_SRT_CD string `json:"ISU_SRT_CD"` // 종목코드 (단축)
	ISU_ABBRV  string `json:"ISU_ABBRV"`  // 종목명
	TDD_CLSPRC string `json:"TDD_CLSPRC"` // 종가
	MKTCAP     string `json:"MKTCAP"`     // 시가총액
	LIST_SHRS  string `json:"LIST_SHRS"`  // 상장주식수
}

// MarketCaps fetches market cap, shares outstanding and close for every
// ticker in a segment on the given trade date.
// ⭐ SSOT: KRX 시가총액/상장주식수 조회는 이 함수에서만
func (c *Client) MarketCaps(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.MarketCapRow, error) {
	mktID, err := marketID(segment)
	if err != nil {
		return nil, err
	}

	trdDd := date.Format("20060102")

	formData := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT01501"},
		"locale":      {"ko_KR"},
		"mktId":       {mktID},
		"trdDd":       {trdDd},
		"share":       {"1"},
		"money":       {"1"},
		"csvxls_isNo": {"false"},
	}

	var apiResp krxMarketCapResponse
	if err := c.getJSON(ctx, formData, &apiResp); err != nil {
		return nil, fmt.Errorf("fetch %s market caps: %w", segment, err)
	}

	if len(apiResp.OutBlock1) == 0 {
		// Holiday or future date: no data, not an error
		return nil, nil
	}

	result := make([]contracts.MarketCapRow, 0, len(apiResp.OutBlock1))
	for _, row := range apiResp.OutBlock1 {
		shares := parseKRXNumber(row.LIST_SHRS)
		if row.ISU_SRT_CD == "" || shares == 0 {
			continue
		}

		result = append(result, contracts.MarketCapRow{
			Ticker:            row.ISU_SRT_CD,
			Name:              row.ISU_ABBRV,
			Date:              date,
			Close:             parseKRXNumber(row.TDD_CLSPRC),
			MarketCap:         parseKRXNumber(row.MKTCAP),
			SharesOutstanding: shares,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"segment":    segment,
		"trade_date": trdDd,
		"count":      len(result),
	}).Debug("Fetched market caps from KRX")

	return result, nil
}
