package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// queryCmd runs a single RPC method from the command line
var queryCmd = &cobra.Command{
	Use:   "query <method>",
	Short: "RPC 메서드 단건 실행",
	Long: `서버를 띄우지 않고 RPC 메서드 하나를 실행해 결과를 JSON으로 출력합니다.

Methods:
  getMarketData          --ticker
  getFinancialData       --ticker [--years]
  getTechnicalIndicators --ticker
  getSupplyDemand        --ticker [--days]
  searchPeers            --ticker
  searchTicker           --name
  calculateDCF           --ticker [--growth] [--discount]

Example:
  go run ./cmd/analyzer query getMarketData --ticker 005930
  go run ./cmd/analyzer query searchTicker --name 삼성전자
  go run ./cmd/analyzer query calculateDCF --ticker 005930 --growth 12 --discount 9`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var (
	queryTicker   string
	queryName     string
	queryYears    int
	queryDays     int
	queryGrowth   float64
	queryDiscount float64
	queryTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryTicker, "ticker", "", "종목 코드 (예: 005930)")
	queryCmd.Flags().StringVar(&queryName, "name", "", "회사명 검색어")
	queryCmd.Flags().IntVar(&queryYears, "years", 1, "재무 연간 시계열 길이")
	queryCmd.Flags().IntVar(&queryDays, "days", 30, "수급 집계 기간 (일)")
	queryCmd.Flags().Float64Var(&queryGrowth, "growth", 10, "DCF 성장률 (%)")
	queryCmd.Flags().Float64Var(&queryDiscount, "discount", 10, "DCF 할인율 (%)")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 2*time.Minute, "실행 제한 시간")
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return fmt.Errorf("build service stack: %w", err)
	}
	defer st.cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	method := args[0]
	var result interface{}

	switch method {
	case "getMarketData":
		result, err = st.analyzer.MarketData(ctx, queryTicker)
	case "getFinancialData":
		result, err = st.analyzer.FinancialData(ctx, queryTicker, queryYears)
	case "getTechnicalIndicators":
		result, err = st.analyzer.TechnicalIndicators(ctx, queryTicker)
	case "getSupplyDemand":
		result, err = st.analyzer.SupplyDemand(ctx, queryTicker, queryDays)
	case "searchPeers":
		result, err = st.analyzer.Peers(ctx, queryTicker)
	case "searchTicker":
		result, err = st.analyzer.SearchTicker(ctx, queryName)
	case "calculateDCF":
		result, err = st.analyzer.DCF(ctx, queryTicker, queryGrowth, queryDiscount)
	default:
		return fmt.Errorf("unknown method %q", method)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
