package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// investorFieldNames declares which upstream investor labels feed each logical
// class. KRX has renamed these labels over time ("기관합계" vs "기관종합"),
// so each class accepts one or more spellings, first match wins.
var investorFieldNames = map[contracts.InvestorClass][]string{
	contracts.InvestorForeign:     {"외국인합계", "외국인"},
	contracts.InvestorInstitution: {"기관합계", "기관종합"},
	contracts.InvestorIndividual:  {"개인"},
}

// krxInvestorTotalsResponse is the per-instrument period-total response,
// one row per investor type.
type krxInvestorTotalsResponse struct {
	OutBlock1 []krxInvestorTotalsRow `json:"output"`
}

type krxInvestorTotalsRow struct {
	INVST_TP_NM   string `json:"INVST_TP_NM"`   // 투자자 구분
	NETBID_TRDVOL string `json:"NETBID_TRDVOL"` // 순매수 거래량
	NETBID_TRDVAL string `json:"NETBID_TRDVAL"` // 순매수 거래대금
}

// InvestorNetTotals fetches net purchase volume and value per logical investor
// class over [from, to]. Classes absent upstream are absent from the map.
// ⭐ SSOT: KRX 투자자별 기간합계 조회는 이 함수에서만
func (c *Client) InvestorNetTotals(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) (map[contracts.InvestorClass]contracts.InvestorNet, error) {
	isin, err := c.resolveISIN(ctx, ticker)
	if err != nil {
		return nil, err
	}

	formData := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT02203"},
		"locale":      {"ko_KR"},
		"inqTpCd":     {"1"}, // 기간합계
		"trdVolVal":   {"1"},
		"askBid":      {"1"},
		"isuCd":       {isin},
		"strtDd":      {from.Format("20060102")},
		"endDd":       {to.Format("20060102")},
		"detailView":  {"1"},
		"csvxls_isNo": {"false"},
	}

	var apiResp krxInvestorTotalsResponse
	if err := c.getJSON(ctx, formData, &apiResp); err != nil {
		return nil, fmt.Errorf("fetch investor totals for %s: %w", ticker, err)
	}

	byLabel := make(map[string]krxInvestorTotalsRow, len(apiResp.OutBlock1))
	for _, row := range apiResp.OutBlock1 {
		byLabel[row.INVST_TP_NM] = row
	}

	totals := make(map[contracts.InvestorClass]contracts.InvestorNet)
	for class, labels := range investorFieldNames {
		for _, label := range labels {
			row, ok := byLabel[label]
			if !ok {
				continue
			}
			totals[class] = contracts.InvestorNet{
				NetValue:  parseKRXNumber(row.NETBID_TRDVAL),
				NetVolume: parseKRXNumber(row.NETBID_TRDVOL),
			}
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"segment": segment,
		"classes": len(totals),
	}).Debug("Fetched investor totals from KRX")

	return totals, nil
}

// krxInvestorDailyResponse is the per-instrument daily-trend response.
// Columns are positional in the non-detail view:
// TRDVAL1 기관합계, TRDVAL2 기타법인, TRDVAL3 개인, TRDVAL4 외국인합계.
type krxInvestorDailyResponse struct {
	OutBlock1 []krxInvestorDailyRow `json:"output"`
}

type krxInvestorDailyRow struct {
	TRD_DD  string `json:"TRD_DD"` // 거래일 (YYYY/MM/DD)
	TRDVAL1 string `json:"TRDVAL1"`
	TRDVAL2 string `json:"TRDVAL2"`
	TRDVAL3 string `json:"TRDVAL3"`
	TRDVAL4 string `json:"TRDVAL4"`
}

// InvestorFlows fetches the daily net purchase value series per logical class
// over [from, to], ascending by date.
// ⭐ SSOT: KRX 투자자별 일별추이 조회는 이 함수에서만
func (c *Client) InvestorFlows(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) ([]contracts.InvestorFlowRow, error) {
	isin, err := c.resolveISIN(ctx, ticker)
	if err != nil {
		return nil, err
	}

	formData := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT02303"},
		"locale":      {"ko_KR"},
		"inqTpCd":     {"2"}, // 일별추이
		"trdVolVal":   {"2"}, // 거래대금
		"askBid":      {"3"}, // 순매수
		"isuCd":       {isin},
		"strtDd":      {from.Format("20060102")},
		"endDd":       {to.Format("20060102")},
		"detailView":  {"0"},
		"csvxls_isNo": {"false"},
	}

	var apiResp krxInvestorDailyResponse
	if err := c.getJSON(ctx, formData, &apiResp); err != nil {
		return nil, fmt.Errorf("fetch investor flows for %s: %w", ticker, err)
	}

	var rows []contracts.InvestorFlowRow
	for _, row := range apiResp.OutBlock1 {
		date, err := time.Parse("2006/01/02", row.TRD_DD)
		if err != nil {
			continue
		}

		rows = append(rows,
			contracts.InvestorFlowRow{Ticker: ticker, Date: date, Class: contracts.InvestorInstitution, NetValue: parseKRXNumber(row.TRDVAL1)},
			contracts.InvestorFlowRow{Ticker: ticker, Date: date, Class: contracts.InvestorIndividual, NetValue: parseKRXNumber(row.TRDVAL3)},
			contracts.InvestorFlowRow{Ticker: ticker, Date: date, Class: contracts.InvestorForeign, NetValue: parseKRXNumber(row.TRDVAL4)},
		)
	}

	// KRX returns newest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(rows),
	}).Debug("Fetched investor flows from KRX")

	return rows, nil
}
