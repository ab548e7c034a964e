package naver

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

var tickerLinkRe = regexp.MustCompile(`code=(\d{6})`)

// Industry fetches the sector label and the same-industry tickers Naver lists
// for a stock on its item page (동일업종 비교 표).
// ⭐ SSOT: 업종 분류 조회는 이 함수에서만
func (c *Client) Industry(ctx context.Context, ticker string) (contracts.IndustryInfo, error) {
	fullURL := fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, ticker)

	body, err := c.fetch(ctx, fullURL)
	if err != nil {
		return contracts.IndustryInfo{}, fmt.Errorf("fetch industry page for %s: %w", ticker, err)
	}

	info, err := parseIndustryHTML(body, ticker)
	if err != nil {
		return contracts.IndustryInfo{}, fmt.Errorf("parse industry page for %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"label":  info.Label,
		"peers":  len(info.Peers),
	}).Debug("Fetched industry classification")
	return info, nil
}

// parseIndustryHTML extracts the industry label and peer ticker codes.
// The label sits in the upjong link above the comparison table; peers are the
// item links inside it. A page without the section yields an empty info, not
// an error (ETFs and some preferred shares have no industry block).
func parseIndustryHTML(html []byte, ticker string) (contracts.IndustryInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return contracts.IndustryInfo{}, err
	}

	var info contracts.IndustryInfo

	// 업종 링크: <a href="/sise/sise_group_detail.naver?type=upjong&no=NN">레이블</a>
	doc.Find(`a[href*="type=upjong"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		label := strings.TrimSpace(sel.Text())
		if label != "" && !strings.Contains(label, "more") {
			info.Label = label
			return false
		}
		return true
	})

	// 동일업종 비교 표의 종목 링크
	seen := map[string]bool{ticker: true}
	doc.Find(`table.tb_type1 a[href*="/item/main.naver?code="], div.section.trade_compare a[href*="code="]`).Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := tickerLinkRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		info.Peers = append(info.Peers, m[1])
	})

	return info, nil
}
