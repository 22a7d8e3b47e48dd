package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/clock"
)

const DefaultBaseURL = "https://www.alphavantage.co"

type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Clock   clock.Clock
}

// HTTP fetches GLOBAL_QUOTE style quotes over HTTP.
type HTTP struct {
	client *resty.Client
	apiKey string
	clk    clock.Clock
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	return &HTTP{client: client, apiKey: cfg.APIKey, clk: cfg.Clock}
}

type globalQuote struct {
	Quote map[string]string `json:"Global Quote"`
	Price json.Number       `json:"price"`
	Note  string            `json:"Note"`
	Info  string            `json:"Information"`
}

func (h *HTTP) Quote(ctx context.Context, symbol string) (Quote, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   h.apiKey,
		}).
		Get("/query")
	if err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Quote{}, fmt.Errorf("quote API error %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var body globalQuote
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Quote{}, fmt.Errorf("failed to parse quote response: %w", err)
	}

	raw := body.Quote["05. price"]
	if raw == "" {
		raw = body.Quote["05. Price"]
	}
	if raw == "" {
		raw = body.Price.String()
	}
	if raw == "" {
		msg := body.Note
		if msg == "" {
			msg = body.Info
		}
		return Quote{}, fmt.Errorf("%w: %s %s", ErrNoPriceAvailable, symbol, msg)
	}

	px, err := decimal.NewFromString(raw)
	if err != nil {
		return Quote{}, fmt.Errorf("bad price %q for %s: %w", raw, symbol, err)
	}
	if !px.IsPositive() {
		return Quote{}, fmt.Errorf("%w: %s quoted at %s", ErrNoPriceAvailable, symbol, px)
	}
	return Quote{Symbol: symbol, Price: px, Time: h.clk.Now()}, nil
}
