package price

import (
	"context"       // Request-scoped cancellation
	"encoding/json" // JSON decoding
	"fmt"           // Error formatting
	"net/http"      // HTTP client
	"time"          // Cache TTL and timeouts

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal USD values
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
	"ganamos/internal/utils"  // Cache helpers
)

// CacheDuration is how long a fetched price is served without refetching
const CacheDuration = 5 * time.Minute

const (
	freshKey = "bitcoin:price:usd"       // Price inside the freshness window
	lastKey  = "bitcoin:price:usd:last"  // Last known price, no TTL, stale fallback
)

const coinMarketCapURL = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest?symbol=BTC&convert=USD"
const diaDataURL = "https://api.diadata.org/v1/assetQuotation/Bitcoin/0x0000000000000000000000000000000000000000"

// FallbackPrice is served when no price has ever been fetched
var FallbackPrice = decimal.NewFromInt(64000)

// Quote is a price answer with its staleness flag
type Quote struct {
	Price    decimal.Decimal `json:"price"`           // BTC price in USD
	Fresh    bool            `json:"fresh,omitempty"` // Fetched within the freshness window
	Cached   bool            `json:"cached,omitempty"` // Served from an expired cache after a fetch failure
	Fallback bool            `json:"fallback,omitempty"` // Hardcoded last-resort price
	Error    string          `json:"error,omitempty"` // Fetch error, if any
}

// Service looks up and caches the Bitcoin market price
type Service struct {
	db     *gorm.DB      // Price history table
	rdb    *redis.Client // Price cache
	apiKey string        // CoinMarketCap API key
	http   *http.Client  // Outbound HTTP client
}

// NewService creates a price service
func NewService(db *gorm.DB, rdb *redis.Client, apiKey string) *Service {
	return &Service{
		db:     db,
		rdb:    rdb,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the BTC/USD price, preferring the cache, falling back to
// the last known price and finally to a hardcoded value. It never fails.
func (s *Service) Current(ctx context.Context) Quote {
	// Serve from cache while it is fresh
	var cached decimal.Decimal
	if found, err := utils.GetCache(ctx, s.rdb, freshKey, &cached); err == nil && found {
		return Quote{Price: cached, Fresh: true}
	}

	// Fetch a fresh price from CoinMarketCap
	fetched, err := s.fetchCoinMarketCap(ctx)
	if err == nil {
		_ = utils.SetCache(ctx, s.rdb, freshKey, fetched, CacheDuration) // Fresh window
		_ = utils.SetCache(ctx, s.rdb, lastKey, fetched, 0)              // Last known, no TTL
		return Quote{Price: fetched, Fresh: true}
	}
	logrus.WithField("error", err.Error()).Error("Failed to fetch Bitcoin price")

	// Use the expired cached price if we ever had one
	var last decimal.Decimal
	if found, err := utils.GetCache(ctx, s.rdb, lastKey, &last); err == nil && found {
		return Quote{Price: last, Cached: true, Error: "Failed to fetch current price"}
	}

	// Otherwise use the hardcoded fallback price
	return Quote{Price: FallbackPrice, Fallback: true, Error: "Failed to fetch current price"}
}

// Latest returns the newest stored price observation, if any
func (s *Service) Latest(ctx context.Context) (decimal.Decimal, bool) {
	var row domain.BitcoinPrice
	err := s.db.WithContext(ctx).
		Where("currency = ?", "USD").
		Order("created_at desc").
		First(&row).Error
	if err != nil {
		return decimal.Zero, false
	}
	return row.Price, true
}

// Refresh fetches the current price from DIA Data, stores it in the price
// history table, prunes observations older than 30 days and refreshes the
// cache. Used by the recurring background job.
func (s *Service) Refresh(ctx context.Context) error {
	fetched, err := s.fetchDIAData(ctx)
	if err != nil {
		return err
	}
	row := domain.BitcoinPrice{
		Price:    fetched,        // Observed price
		Currency: "USD",          // Quote currency
		Source:   "diadata.org",  // Price source
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store price: %w", err)
	}
	// Prune old observations; failure here never fails the refresh
	cutoff := time.Now().AddDate(0, 0, -30)
	if err := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.BitcoinPrice{}).Error; err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to prune old price records")
	}
	_ = utils.SetCache(ctx, s.rdb, freshKey, fetched, CacheDuration)
	_ = utils.SetCache(ctx, s.rdb, lastKey, fetched, 0)
	logrus.WithField("price", fetched.StringFixed(2)).Info("Bitcoin price updated")
	return nil
}

// fetchCoinMarketCap fetches the BTC/USD quote from CoinMarketCap
func (s *Service) fetchCoinMarketCap(ctx context.Context) (decimal.Decimal, error) {
	if s.apiKey == "" {
		return decimal.Zero, fmt.Errorf("CoinMarketCap API key missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coinMarketCapURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price API request failed with status %d", resp.StatusCode)
	}
	var body struct {
		Data struct {
			BTC struct {
				Quote struct {
					USD struct {
						Price decimal.Decimal `json:"price"` // BTC price in USD
					} `json:"USD"`
				} `json:"quote"`
			} `json:"BTC"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	p := body.Data.BTC.Quote.USD.Price
	if p.IsZero() {
		return decimal.Zero, fmt.Errorf("invalid price data received")
	}
	return p, nil
}

// fetchDIAData fetches the BTC/USD quote from DIA Data (no API key needed)
func (s *Service) fetchDIAData(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, diaDataURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price API request failed with status %d", resp.StatusCode)
	}
	var body struct {
		Price decimal.Decimal `json:"Price"` // BTC price in USD
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	if body.Price.IsZero() {
		return decimal.Zero, fmt.Errorf("invalid price data received")
	}
	return body.Price, nil
}
