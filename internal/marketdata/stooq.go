package marketdata

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"psm_watchlist/internal/models"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// missingMarkers are the literal strings stooq uses for an absent field,
// grounded on MISSING_MARKERS in original_source/marketdata/stooq.py.
var missingMarkers = map[string]bool{
	"":    true,
	"N/D": true,
	"-":   true,
}

// Client fetches bars and quotes from the stooq CSV feed. A rate limiter
// throttles the batched quote fetch across a cron-scheduled day; the
// teacher never needed this (it has no batched external data feed), so
// it is adopted fresh from the broader example pack (golang.org/x/time/rate).
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	BatchSize  int
	Limiter    *rate.Limiter
}

// NewClient returns a Client with sensible defaults: one request every
// 200ms (five per second), matching stooq's informal rate-limit etiquette.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		BaseURL:    "https://stooq.com",
		BatchSize:  8,
		Limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := c.BaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketdata: fetching %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketdata: %s returned status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchDailyHistory downloads the full daily OHLCV history for symbol
// between d1 and d2 (inclusive, yyyy-mm-dd), grounded on fetch_daily_history.
func (c *Client) FetchDailyHistory(ctx context.Context, symbol, d1, d2 string) ([]models.Bar, error) {
	body, err := c.get(ctx, "/q/d/l/", url.Values{
		"s":  {symbol},
		"i":  {"d"},
		"d1": {strings.ReplaceAll(d1, "-", "")},
		"d2": {strings.ReplaceAll(d2, "-", "")},
	})
	if err != nil {
		return nil, err
	}
	return parseStooqCSV(body)
}

// FetchLastDays downloads the last 3n calendar days of history for symbol
// and returns at most the n most recent bars, grounded on fetch_last_days.
func (c *Client) FetchLastDays(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	d2 := time.Now().UTC()
	d1 := d2.AddDate(0, 0, -n*3)
	bars, err := c.FetchDailyHistory(ctx, symbol, d1.Format("2006-01-02"), d2.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

// Quote is one latest-session quote row for a symbol.
type Quote struct {
	Symbol string
	Bar    models.Bar
	Found  bool
}

// FetchLatestQuotesBatched fetches the latest quote for every symbol,
// batching requests at c.BatchSize symbols per call, grounded on
// fetch_latest_quotes_batched.
func (c *Client) FetchLatestQuotesBatched(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = 8
	}
	for start := 0; start < len(symbols); start += batchSize {
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]
		body, err := c.get(ctx, "/q/l/", url.Values{
			"s": {strings.Join(batch, ",")},
			"f": {"sd2t2ohlcv"},
			"h": {""},
			"e": {"csv"},
		})
		if err != nil {
			return nil, err
		}
		quotes, err := parseStooqQuotesCSV(body)
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			out[q.Symbol] = q
		}
	}
	return out, nil
}

func parseStooqCSV(body []byte) ([]models.Bar, error) {
	r := csv.NewReader(bufio.NewReader(strings.NewReader(string(body))))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("marketdata: parsing stooq history csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, nil
	}
	header := indexHeader(rows[0])
	var out []models.Bar
	for _, row := range rows[1:] {
		date := firstValue(row, header, "date")
		if missingMarkers[date] || !models.ValidCivilDate(date) {
			continue
		}
		o, errO := parseFloatField(row, header, "open")
		h, errH := parseFloatField(row, header, "high")
		l, errL := parseFloatField(row, header, "low")
		cl, errC := parseFloatField(row, header, "close")
		if errO != nil || errH != nil || errL != nil || errC != nil {
			continue
		}
		v, _ := parseFloatField(row, header, "volume")
		out = append(out, models.Bar{
			Date:   date,
			Open:   decimalFromFloat(o),
			High:   decimalFromFloat(h),
			Low:    decimalFromFloat(l),
			Close:  decimalFromFloat(cl),
			Volume: int64(v),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func parseStooqQuotesCSV(body []byte) ([]Quote, error) {
	r := csv.NewReader(bufio.NewReader(strings.NewReader(string(body))))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("marketdata: parsing stooq quotes csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, nil
	}
	header := indexHeader(rows[0])
	var out []Quote
	for _, row := range rows[1:] {
		symbol := normalizeSymbol(firstValue(row, header, "symbol"))
		date := firstValue(row, header, "date")
		if symbol == "" {
			continue
		}
		if missingMarkers[date] || !models.ValidCivilDate(date) {
			out = append(out, Quote{Symbol: symbol, Found: false})
			continue
		}
		o, errO := parseFloatField(row, header, "open")
		h, errH := parseFloatField(row, header, "high")
		l, errL := parseFloatField(row, header, "low")
		cl, errC := parseFloatField(row, header, "close")
		if errO != nil || errH != nil || errL != nil || errC != nil {
			out = append(out, Quote{Symbol: symbol, Found: false})
			continue
		}
		v, _ := parseFloatField(row, header, "volume")
		out = append(out, Quote{
			Symbol: symbol,
			Found:  true,
			Bar: models.Bar{
				Date:   date,
				Open:   decimalFromFloat(o),
				High:   decimalFromFloat(h),
				Low:    decimalFromFloat(l),
				Close:  decimalFromFloat(cl),
				Volume: int64(v),
			},
		})
	}
	return out, nil
}

// indexHeader builds a case-insensitive column name to index map,
// grounded on _first_value's case-insensitive column lookup.
func indexHeader(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, name := range row {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func firstValue(row []string, header map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := header[name]; ok && i < len(row) {
			v := strings.TrimSpace(row[i])
			if !missingMarkers[v] {
				return v
			}
		}
	}
	return ""
}

func parseFloatField(row []string, header map[string]int, name string) (float64, error) {
	v := firstValue(row, header, name)
	if v == "" {
		return 0, fmt.Errorf("marketdata: missing field %q", name)
	}
	return strconv.ParseFloat(v, 64)
}
