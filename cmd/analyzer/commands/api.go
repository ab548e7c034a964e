package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/api"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/api/handlers"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `주식 조회 RPC 서버를 시작합니다.

Endpoints:
  GET  /health          - Health check
  POST /api/stock_data  - RPC 디스패치 (method + params)

Methods:
  getMarketData, getFinancialData, getTechnicalIndicators,
  getSupplyDemand, searchPeers, searchTicker, calculateDCF

Example:
  go run ./cmd/analyzer api
  go run ./cmd/analyzer api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return fmt.Errorf("build service stack: %w", err)
	}
	defer st.cleanup()

	if apiPort != "" {
		st.cfg.Port = apiPort
	}

	rpcHandler := handlers.NewRPCHandler(st.analyzer, st.log)
	router := api.NewRouter(rpcHandler, st.log)
	server := api.New(st.cfg, st.log, router)

	// Opt-in classification cache warmer
	if st.cfg.CacheWarm.Enabled {
		warmer := scheduler.NewWarmer(st.classifier, st.cfg.CacheWarm, st.log)
		if err := warmer.Start(); err != nil {
			return fmt.Errorf("start cache warmer: %w", err)
		}
		defer warmer.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			st.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", st.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/stock_data")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	st.log.Info("Server stopped")
	return nil
}
