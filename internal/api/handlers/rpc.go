package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/analysis"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// RPCHandler routes a method name plus parameter map to one analyzer
// operation and wraps the answer in the response envelope.
// ⭐ SSOT: RPC 메서드 디스패치는 이 구조체에서만
type RPCHandler struct {
	analyzer *analysis.Analyzer
	logger   *logger.Logger
}

// NewRPCHandler creates a new RPC handler
func NewRPCHandler(a *analysis.Analyzer, log *logger.Logger) *RPCHandler {
	return &RPCHandler{analyzer: a, logger: log}
}

type rpcRequest struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

// Dispatch handles POST /api/stock_data
func (h *RPCHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body must be JSON with method and params", "")
		return
	}

	data, err := h.call(r.Context(), req.Method, params(req.Params))
	if err != nil {
		status := contracts.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("rpcMethod", req.Method).Error("RPC method failed")
		} else {
			h.logger.WithError(err).WithField("rpcMethod", req.Method).Debug("RPC method rejected")
		}
		respondError(w, status, contracts.UserMessage(err), detailFor(err, status))
		return
	}

	respondJSON(w, data)
}

// call maps each RPC method onto the analyzer
func (h *RPCHandler) call(ctx context.Context, method string, p params) (interface{}, error) {
	switch method {
	case "getMarketData":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		return h.analyzer.MarketData(ctx, ticker)

	case "getFinancialData":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		return h.analyzer.FinancialData(ctx, ticker, p.intOr("years", 1))

	case "getTechnicalIndicators":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		return h.analyzer.TechnicalIndicators(ctx, ticker)

	case "getSupplyDemand":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		return h.analyzer.SupplyDemand(ctx, ticker, p.intOr("days", 30))

	case "searchPeers":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		return h.analyzer.Peers(ctx, ticker)

	case "searchTicker":
		name, err := p.requiredString("companyName")
		if err != nil {
			return nil, err
		}
		return h.analyzer.SearchTicker(ctx, name)

	case "calculateDCF":
		ticker, err := p.ticker()
		if err != nil {
			return nil, err
		}
		growth := p.floatOr("growthRatePercent", 10)
		discount := p.floatOr("discountRatePercent", 10)
		return h.analyzer.DCF(ctx, ticker, growth, discount)

	default:
		return nil, contracts.NewError(contracts.ErrInvalidInput, "unknown method %q", method)
	}
}

// detailFor exposes operator detail for non-internal failures only
func detailFor(err error, status int) string {
	if status == http.StatusInternalServerError {
		return ""
	}
	var e *contracts.Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// params reads loosely-typed JSON parameters. Numbers arrive as float64.
type params map[string]interface{}

func (p params) ticker() (string, error) {
	return p.requiredString("ticker")
}

func (p params) requiredString(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", contracts.NewError(contracts.ErrInvalidInput, "parameter %q is required", key)
	}
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", contracts.NewError(contracts.ErrInvalidInput, "parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func (p params) intOr(key string, def int) int {
	if f, ok := p[key].(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return def
}

func (p params) floatOr(key string, def float64) float64 {
	if f, ok := p[key].(float64); ok {
		return f
	}
	return def
}
