package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"cpamm/pkg/config"
)

var (
	rpcEndpoints    = flag.String("rpc", "", "Comma-separated Solana RPC endpoints (uses RPC_ENDPOINTS if empty)")
	wsEndpoint      = flag.String("ws", "", "WebSocket endpoint (derived from first RPC endpoint if empty)")
	port            = flag.Int("port", 8080, "HTTP server port")
	refreshInterval = flag.Int("refresh", 30, "Reserve refresh interval in seconds")
	rateLimit       = flag.Int("ratelimit", 20, "RPC requests per second per endpoint")
	slippageBps     = flag.Int("slippage", 50, "Default slippage tolerance in basis points")
	poolAddrs       = flag.String("pools", "", "Comma-separated pool config addresses to track")
	pairFlag        = flag.String("pair", "", "Discover pools over a mint pair, formatted mintX,mintY")
	debug           = flag.Bool("debug", false, "Enable debug logging")
)

var (
	service   *PoolService
	logger    *zap.Logger
	startTime time.Time
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	flag.Parse()

	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	startTime = time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var endpoints []string
	if *rpcEndpoints != "" {
		endpoints = strings.Split(*rpcEndpoints, ",")
		for i := range endpoints {
			endpoints[i] = strings.TrimSpace(endpoints[i])
		}
	} else {
		endpoints = config.GetRPCEndpoints()
		if len(endpoints) == 0 {
			logger.Fatal("no RPC endpoints configured, set RPC_ENDPOINTS in .env or use -rpc")
		}
	}

	wsURL := *wsEndpoint
	if wsURL == "" {
		wsURL = config.GetWSEndpoint()
	}

	logger.Info("starting pool service",
		zap.Int("port", *port),
		zap.Int("refreshSeconds", *refreshInterval),
		zap.Int("rpcEndpoints", len(endpoints)),
		zap.Int("slippageBps", *slippageBps))

	service, err = NewPoolService(
		ctx,
		endpoints,
		wsURL,
		*rateLimit,
		time.Duration(*refreshInterval)*time.Second,
		*slippageBps,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to create pool service", zap.Error(err))
	}
	defer service.Close()

	if *poolAddrs != "" {
		if err := service.LoadPools(ctx, strings.Split(*poolAddrs, ",")); err != nil {
			logger.Fatal("failed to load pools", zap.Error(err))
		}
	}
	if *pairFlag != "" {
		mintX, mintY, err := parsePair(*pairFlag)
		if err != nil {
			logger.Fatal("invalid -pair", zap.Error(err))
		}
		count, err := service.DiscoverPools(ctx, mintX, mintY)
		if err != nil {
			logger.Fatal("pool discovery failed", zap.Error(err))
		}
		logger.Info("discovered pools", zap.Int("count", count))
	}
	if service.PoolCount() == 0 {
		logger.Warn("no pools tracked, pass -pools or -pair")
	}

	go service.StartPeriodicRefresh(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", handleQuote)
	mux.HandleFunc("/quote/deposit", handleDepositQuote)
	mux.HandleFunc("/quote/withdraw", handleWithdrawQuote)
	mux.HandleFunc("/pools", handlePools)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/", handleRoot)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: corsMiddleware(mux),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown error", zap.Error(err))
		}
		cancel()
	}()

	logger.Info("server listening", zap.String("addr", fmt.Sprintf("http://localhost:%d", *port)))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func parsePair(raw string) (solana.PublicKey, solana.PublicKey, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("expected mintX,mintY, got %q", raw)
	}
	mintX, err := solana.PublicKeyFromBase58(strings.TrimSpace(parts[0]))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid mintX: %w", err)
	}
	mintY, err := solana.PublicKeyFromBase58(strings.TrimSpace(parts[1]))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid mintY: %w", err)
	}
	return mintX, mintY, nil
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	response := map[string]interface{}{
		"service": "cpamm pool service",
		"status":  "running",
		"pools":   service.PoolCount(),
		"endpoints": map[string]string{
			"quote":         "/quote?input=<mint>&output=<mint>&amount=<amount>&slippageBps=<bps>&pool=<address>",
			"depositQuote":  "/quote/deposit?pool=<address>&lpAmount=<amount>",
			"withdrawQuote": "/quote/withdraw?pool=<address>&lpAmount=<amount>",
			"pools":         "/pools",
			"health":        "/health",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	inputMint := r.URL.Query().Get("input")
	outputMint := r.URL.Query().Get("output")
	amount := r.URL.Query().Get("amount")
	poolID := r.URL.Query().Get("pool")
	slippageParam := r.URL.Query().Get("slippageBps")

	if amount == "" || (poolID == "" && (inputMint == "" || outputMint == "")) {
		writeError(w, "Missing required parameters: amount plus pool or input/output", http.StatusBadRequest)
		return
	}

	slippage := 0
	if slippageParam != "" {
		parsed, err := strconv.Atoi(slippageParam)
		if err != nil || parsed < 0 || parsed > 10000 {
			writeError(w, "Invalid slippageBps parameter (must be 0-10000)", http.StatusBadRequest)
			return
		}
		slippage = parsed
	}

	quote, err := service.Quote(r.Context(), poolID, inputMint, outputMint, amount, slippage)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to calculate quote: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

func handleDepositQuote(w http.ResponseWriter, r *http.Request) {
	poolID, lpAmount, ok := liquidityParams(w, r)
	if !ok {
		return
	}

	quote, err := service.QuoteDeposit(poolID, lpAmount)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to size deposit: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

func handleWithdrawQuote(w http.ResponseWriter, r *http.Request) {
	poolID, lpAmount, ok := liquidityParams(w, r)
	if !ok {
		return
	}

	quote, err := service.QuoteWithdraw(poolID, lpAmount)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to size withdrawal: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

func liquidityParams(w http.ResponseWriter, r *http.Request) (string, uint64, bool) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", 0, false
	}

	poolID := r.URL.Query().Get("pool")
	lpParam := r.URL.Query().Get("lpAmount")
	if poolID == "" || lpParam == "" {
		writeError(w, "Missing required parameters: pool, lpAmount", http.StatusBadRequest)
		return "", 0, false
	}

	lpAmount, err := strconv.ParseUint(lpParam, 10, 64)
	if err != nil || lpAmount == 0 {
		writeError(w, "Invalid lpAmount parameter (must be a positive integer)", http.StatusBadRequest)
		return "", 0, false
	}

	return poolID, lpAmount, true
}

func handlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(service.Views())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "healthy",
		Pools:      service.PoolCount(),
		Subscribed: service.Subscribed(),
		LastUpdate: service.LastUpdate(),
		Uptime:     time.Since(startTime).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
