package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/asyncfetch/go-fetcher/internal/config"
	"github.com/asyncfetch/go-fetcher/pkg/auth"
	"github.com/asyncfetch/go-fetcher/pkg/fetcher"
	"github.com/asyncfetch/go-fetcher/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// fetchCmd runs one batch fetch.
var fetchCmd = &cobra.Command{
	Use:   "fetch [url...]",
	Short: "Fetch a batch of URLs concurrently",
	Long: `Fetch all given URLs with bounded concurrency and print a summary.

URLs are taken from the arguments and, when --file is given, one per line
from the file (blank lines and #-comments skipped).

Example:
  fetchctl fetch https://httpbin.org/delay/1 https://httpbin.org/status/200
  CONCURRENCY=20 fetchctl fetch --file urls.txt`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringP("file", "f", "", "file with one URL per line")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	urls := append([]string{}, args...)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		fromFile, err := readURLFile(file)
		if err != nil {
			return fmt.Errorf("failed to read url file: %w", err)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given (pass arguments or --file)")
	}

	fetchCfg := fetcher.Config{
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: time.Duration(cfg.BackoffBaseMS) * time.Millisecond,
		UserAgent:   cfg.UserAgent,
		Logger:      &logger,
	}

	if cfg.AuthURL != "" {
		provider, err := buildProvider(cfg)
		if err != nil {
			return fmt.Errorf("failed to configure auth: %w", err)
		}
		fetchCfg.Auth = provider
	}

	f, err := fetcher.New(fetchCfg)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	// Cancel the whole batch on SIGINT/SIGTERM; in-flight fetches unwind
	// through their ticket-release paths and report as failed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, stats, err := f.FetchAll(ctx, urls)
	if err != nil {
		return err
	}

	for i, res := range results {
		status := "FAIL"
		if res.OK {
			status = "OK"
		}
		fmt.Printf("%-4s %s\n", status, urls[i])
	}
	fmt.Printf("\n%d/%d succeeded in %.2fs (%.2f req/s, concurrency %d)\n",
		stats.SuccessCount, stats.TotalURLs, stats.Duration.Seconds(),
		stats.RequestsPerSecond, stats.Concurrency)

	return nil
}

// buildProvider wires the password provider and the optional Redis-backed
// shared token store.
func buildProvider(cfg *config.Config) (auth.TokenProvider, error) {
	authCfg := auth.Config{
		AuthURL:    cfg.AuthURL,
		Username:   cfg.AuthUsername,
		Password:   cfg.AuthPassword,
		TokenField: cfg.AuthTokenField,
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		authCfg.Store = auth.NewRedisStore(redisClient, "")
	}

	return auth.NewPasswordProvider(authCfg)
}

// readURLFile reads one URL per line, skipping blanks and #-comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(addr, mux)
}
