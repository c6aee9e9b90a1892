// Package marketdata fetches daily bars and quotes from the stooq CSV
// feed and resolves exchange tickers to stooq symbol candidates.
// Grounded on original_source/marketdata/symbols.py and stooq.py.
package marketdata

import "strings"

// exchangeSuffixes maps an exchange code to the stooq symbol suffix(es)
// that identify it, tried in order when a symbol's default mapping fails.
// Grounded verbatim on EXCHANGE_SUFFIXES in original_source/marketdata/symbols.py.
var exchangeSuffixes = map[string][]string{
	"NYSE":   {"us"},
	"NASDAQ": {"us"},
	"AMEX":   {"us"},
	"US":     {"us"},
	"LSE":    {"uk", "l"},
	"ETR":    {"de"},
	"XETRA":  {"de"},
	"XETR":   {"de"},
	"FRA":    {"de"},
	"EPA":    {"fr"},
	"PA":     {"fr"},
	"BIT":    {"it"},
	"MI":     {"it"},
	"AMS":    {"nl"},
	"SW":     {"sw"},
	"OSL":    {"ol"},
	"OSE":    {"ol"},
	"ASX":    {"au"},
	"NSE":    {"in"},
	"TSE":    {"jp"},
	"TYO":    {"jp"},
	"JP":     {"jp"},
	"TSX":    {"ca"},
	"HEL":    {"fi"},
	"CPH":    {"dk"},
	"SZ":     {"cn"},
	"SHE":    {"cn"},
	"SHA":    {"cn"},
	"SGX":    {"sg"},
	"KRX":    {"kr"},
	"ADX":    {"ae"},
	"EGX":    {"eg"},
	"LAG":    {"ng"},
	"GSE":    {"gh"},
	"KW":     {"kw"},
}

func normalizeSymbol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeExchange(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DefaultStooqSymbol picks the first plausible stooq symbol for a ticker
// on a given exchange: a dotted ticker (already symbol-shaped) passes
// through untouched, otherwise the exchange's first known suffix is
// appended, falling back to ".us" when the exchange is unrecognized.
func DefaultStooqSymbol(ticker, exchange string) string {
	t := normalizeSymbol(ticker)
	if strings.Contains(t, ".") {
		return t
	}
	if suffixes, ok := exchangeSuffixes[normalizeExchange(exchange)]; ok && len(suffixes) > 0 {
		return t + "." + suffixes[0]
	}
	return t + ".us"
}

// BuildStooqSymbolCandidates returns the ordered, deduplicated list of
// stooq symbols worth trying for a ticker: the position's currently
// stored symbol first, then the default mapping, then every suffix known
// for the exchange, then the bare ticker as a last resort. Grounded on
// build_stooq_symbol_candidates.
func BuildStooqSymbolCandidates(currentSymbol, ticker, exchange string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = normalizeSymbol(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	if currentSymbol != "" {
		add(currentSymbol)
	}
	add(DefaultStooqSymbol(ticker, exchange))
	for _, suffix := range exchangeSuffixes[normalizeExchange(exchange)] {
		add(normalizeSymbol(ticker) + "." + suffix)
	}
	add(normalizeSymbol(ticker))

	return out
}
