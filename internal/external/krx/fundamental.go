package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// krxFundamentalResponse represents the KRX ratio table response
type krxFundamentalResponse struct {
	OutBlock1 []krxFundamentalRow `json:"output"`
}

// krxFundamentalRow holds PER/PBR/배당 figures for one ticker.
// KRX publishes "-" for ratios it cannot compute; those parse to zero and are
// reclassified downstream.
type krxFundamentalRow struct {
	ISU_SRT_CD string `json:"ISU_SRT_CD"` // 종목코드
	ISU_ABBRV  string `json:"ISU_ABBRV"`  // 종목명
	EPS        string `json:"EPS"`
	PER        string `json:"PER"`
	BPS        string `json:"BPS"`
	PBR        string `json:"PBR"`
	DPS        string `json:"DPS"`
	DVD_YLD    string `json:"DVD_YLD"` // 배당수익률
}

// Fundamentals fetches the PER/PBR/EPS/BPS/DIV/DPS table for every ticker in
// a segment on the given trade date.
// ⭐ SSOT: KRX 전종목 밸류에이션 조회는 이 함수에서만
func (c *Client) Fundamentals(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.FundamentalRow, error) {
	mktID, err := marketID(segment)
	if err != nil {
		return nil, err
	}

	trdDd := date.Format("20060102")

	formData := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT03501"},
		"locale":      {"ko_KR"},
		"searchType":  {"1"},
		"mktId":       {mktID},
		"trdDd":       {trdDd},
		"csvxls_isNo": {"false"},
	}

	var apiResp krxFundamentalResponse
	if err := c.getJSON(ctx, formData, &apiResp); err != nil {
		return nil, fmt.Errorf("fetch %s fundamentals: %w", segment, err)
	}

	if len(apiResp.OutBlock1) == 0 {
		return nil, nil
	}

	result := make([]contracts.FundamentalRow, 0, len(apiResp.OutBlock1))
	for _, row := range apiResp.OutBlock1 {
		if row.ISU_SRT_CD == "" {
			continue
		}

		result = append(result, contracts.FundamentalRow{
			Ticker: row.ISU_SRT_CD,
			Name:   row.ISU_ABBRV,
			Date:   date,
			PER:    parseKRXFloat(row.PER),
			PBR:    parseKRXFloat(row.PBR),
			EPS:    parseKRXFloat(row.EPS),
			BPS:    parseKRXFloat(row.BPS),
			DIV:    parseKRXFloat(row.DVD_YLD),
			DPS:    parseKRXFloat(row.DPS),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"segment":    segment,
		"trade_date": trdDd,
		"count":      len(result),
	}).Debug("Fetched fundamentals from KRX")

	return result, nil
}
