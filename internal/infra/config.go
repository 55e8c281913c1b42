package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	// API is the off-chain order book read service.
	API struct {
		BaseURL         string  `yaml:"base_url"`
		TimeoutMS       int     `yaml:"timeout_ms"`
		BookPollMS      int     `yaml:"book_poll_ms"`
		OrdersPollMS    int     `yaml:"orders_poll_ms"`
		BalancesPollMS  int     `yaml:"balances_poll_ms"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
		Breaker         struct {
			FailureThreshold int `yaml:"failure_threshold"`
			SuccessThreshold int `yaml:"success_threshold"`
			TimeoutSec       int `yaml:"timeout_sec"`
		} `yaml:"breaker"`
	} `yaml:"api"`

	Chain struct {
		Mode       string `yaml:"mode"` // DRY_RUN or LIVE
		RPCURL     string `yaml:"rpc_url"`
		ChainID    int64  `yaml:"chain_id"`
		Rollup     string `yaml:"rollup"`
		Portal     string `yaml:"portal"`
		BidToken   string `yaml:"bid_token"`
		AskToken   string `yaml:"ask_token"`
		PrivateKey string `yaml:"private_key"`
		GasLimit   uint64 `yaml:"gas_limit"` // 0 = estimate per call
	} `yaml:"chain"`

	Input struct {
		DebounceMS int `yaml:"debounce_ms"`
	} `yaml:"input"`

	Session struct {
		Address string `yaml:"address"` // optional; may be set later from the shell
	} `yaml:"session"`

	Server struct {
		Addr string `yaml:"addr"` // empty disables the state API
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
	} `yaml:"logging"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// Chain modes. DRY_RUN logs and journals writes without signing.
const (
	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"
)

// DefaultConfig matches a local development deployment (hardhat chain 31337,
// read API on :8080).
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = AppName
	cfg.App.Version = "dev"

	cfg.API.BaseURL = "http://localhost:8080"
	cfg.API.TimeoutMS = 5000
	cfg.API.BookPollMS = 1000
	cfg.API.OrdersPollMS = 2000
	cfg.API.BalancesPollMS = 2000
	cfg.API.RateLimitPerSec = 20
	cfg.API.RateLimitBurst = 10
	cfg.API.Breaker.FailureThreshold = 5
	cfg.API.Breaker.SuccessThreshold = 1
	cfg.API.Breaker.TimeoutSec = 10

	cfg.Chain.Mode = ModeDryRun
	cfg.Chain.RPCURL = "http://localhost:8545"
	cfg.Chain.ChainID = 31337
	cfg.Chain.Rollup = "0xeA8538B194742b992B19e694C13D63120908880e"

	cfg.Input.DebounceMS = 500
	cfg.Server.Addr = "127.0.0.1:7070"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Metrics.Namespace = "obclient"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// A missing file is not an error: defaults plus environment are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if err := checkHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := checkHTTPURL("chain.rpc_url", c.Chain.RPCURL); err != nil {
		return err
	}
	if c.API.BookPollMS <= 0 || c.API.OrdersPollMS <= 0 || c.API.BalancesPollMS <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.Input.DebounceMS <= 0 {
		return fmt.Errorf("debounce window must be positive")
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain id must be positive")
	}

	switch c.Chain.Mode {
	case ModeDryRun:
	case ModeLive:
		if c.Chain.PrivateKey == "" {
			return fmt.Errorf("LIVE mode requires OBCLIENT_PRIVATE_KEY")
		}
	default:
		return fmt.Errorf("unknown chain mode: %s", c.Chain.Mode)
	}

	if c.Chain.Rollup == "" {
		return fmt.Errorf("chain.rollup is required")
	}
	addrs := map[string]string{
		"chain.rollup":    c.Chain.Rollup,
		"chain.portal":    c.Chain.Portal,
		"chain.bid_token": c.Chain.BidToken,
		"chain.ask_token": c.Chain.AskToken,
		"session.address": c.Session.Address,
	}
	for name, v := range addrs {
		if v != "" && !common.IsHexAddress(v) {
			return fmt.Errorf("invalid %s: %s", name, v)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format: %s", c.Logging.Format)
	}
	return nil
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %s", name, raw)
	}
	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
// Rule #5: 환경 변수는 설정 파일보다 우선합니다 (보안 강화).
func overrideWithEnv(cfg *Config) {
	// Security Warning: Log if secrets found in config file
	if cfg.Chain.PrivateKey != "" {
		// Using fmt instead of slog: the logger is configured from this struct
		fmt.Println("⚠️  SECURITY WARNING: private key found in config file.")
		fmt.Println("   Recommendation: Use OBCLIENT_PRIVATE_KEY instead.")
	}

	if v := os.Getenv("OBCLIENT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("OBCLIENT_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("OBCLIENT_MODE"); v != "" {
		cfg.Chain.Mode = v
	}
	cfg.Chain.Mode = strings.ToUpper(cfg.Chain.Mode)
	if v := os.Getenv("OBCLIENT_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Chain.ChainID = id
		}
	}
	if v := os.Getenv("OBCLIENT_PRIVATE_KEY"); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v := os.Getenv("OBCLIENT_ADDRESS"); v != "" {
		cfg.Session.Address = v
	}
	if v := os.Getenv("OBCLIENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
