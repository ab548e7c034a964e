package commands

import (
	"github.com/spf13/cobra"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/analysis"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/provider"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
	redispkg "github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/redis"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "국내 주식 조회/분석 서비스",
	Long: `한국거래소 상장 종목 조회 서비스

시세, 재무 지표, 기술적 지표, 수급, 유사 종목, DCF 밸류에이션을
단일 RPC 엔드포인트와 CLI로 제공합니다.

Usage:
  go run ./cmd/analyzer [command]

Examples:
  go run ./cmd/analyzer api
  go run ./cmd/analyzer query getMarketData --ticker 005930`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// stack bundles everything a command needs once wiring is done
type stack struct {
	cfg        *config.Config
	log        *logger.Logger
	analyzer   *analysis.Analyzer
	classifier *analysis.Classifier
	cleanup    func()
}

// buildStack wires config through the analyzer. The returned cleanup closes
// the redis client.
func buildStack() (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	redisClient, err := redispkg.New(cfg)
	if err != nil {
		return nil, err
	}
	cache := redispkg.NewCache(redisClient, "analyzer")

	prov := provider.New(cfg, log)
	classifier := analysis.NewClassifier(prov, cache, cfg.Analysis, log)
	analyzer := analysis.New(prov, classifier, cfg.Analysis, log)

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("Redis close failed")
		}
	}

	return &stack{
		cfg:        cfg,
		log:        log,
		analyzer:   analyzer,
		classifier: classifier,
		cleanup:    cleanup,
	}, nil
}
