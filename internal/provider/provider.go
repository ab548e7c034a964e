package provider

import (
	"context"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/external/krx"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/external/naver"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/httputil"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// Provider composes the KRX and Naver clients behind the single
// MarketDataProvider contract the analysis core depends on.
// ⭐ SSOT: 외부 데이터 소스 조합은 여기서만
type Provider struct {
	krx   *krx.Client
	naver *naver.Client
}

var _ contracts.MarketDataProvider = (*Provider)(nil)

// New builds the provider with per-source rate-limited HTTP clients
func New(cfg *config.Config, log *logger.Logger) *Provider {
	krxHTTP := httputil.New(log, cfg.KRX.RateLimit)
	naverHTTP := httputil.New(log, cfg.Naver.RateLimit)

	return &Provider{
		krx:   krx.NewClient(krxHTTP, log, cfg.KRX.BaseURL),
		naver: naver.NewClient(naverHTTP, log, cfg.Naver.BaseURL, cfg.Naver.ChartBaseURL),
	}
}

func (p *Provider) OHLCV(ctx context.Context, ticker string, from, to time.Time) ([]contracts.OHLCVRow, error) {
	return p.naver.OHLCV(ctx, ticker, from, to)
}

func (p *Provider) MarketCaps(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.MarketCapRow, error) {
	return p.krx.MarketCaps(ctx, segment, date)
}

func (p *Provider) Fundamentals(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.FundamentalRow, error) {
	return p.krx.Fundamentals(ctx, segment, date)
}

func (p *Provider) InvestorNetTotals(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) (map[contracts.InvestorClass]contracts.InvestorNet, error) {
	return p.krx.InvestorNetTotals(ctx, ticker, segment, from, to)
}

func (p *Provider) InvestorFlows(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) ([]contracts.InvestorFlowRow, error) {
	return p.krx.InvestorFlows(ctx, ticker, segment, from, to)
}

func (p *Provider) TickerName(ctx context.Context, ticker string) (string, error) {
	return p.naver.TickerName(ctx, ticker)
}

func (p *Provider) Industry(ctx context.Context, ticker string) (contracts.IndustryInfo, error) {
	return p.naver.Industry(ctx, ticker)
}
