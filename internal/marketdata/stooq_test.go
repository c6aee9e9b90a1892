package marketdata

import "testing"

func TestParseStooqCSV_SkipsMissingMarkerRows(t *testing.T) {
	body := []byte("Date,Open,High,Low,Close,Volume\n" +
		"2026-07-28,10,11,9,10.5,1000\n" +
		"N/D,N/D,N/D,N/D,N/D,N/D\n" +
		"2026-07-29,10.5,12,10,11.5,2000\n")

	bars, err := parseStooqCSV(body)
	if err != nil {
		t.Fatalf("parseStooqCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}
	if bars[0].Date != "2026-07-28" || bars[1].Date != "2026-07-29" {
		t.Fatalf("got %v", bars)
	}
}

func TestParseStooqCSV_CaseInsensitiveHeader(t *testing.T) {
	body := []byte("DATE,OPEN,HIGH,LOW,CLOSE,VOLUME\n2026-07-28,10,11,9,10.5,1000\n")
	bars, err := parseStooqCSV(body)
	if err != nil {
		t.Fatalf("parseStooqCSV: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("len(bars) = %d, want 1", len(bars))
	}
	if !bars[0].Close.Equal(decimalFromFloat(10.5)) {
		t.Fatalf("close = %v, want 10.5", bars[0].Close)
	}
}

func TestParseStooqQuotesCSV_MarksNotFoundOnMissingData(t *testing.T) {
	body := []byte("Symbol,Date,Time,Open,High,Low,Close,Volume\n" +
		"aapl.us,2026-07-30,16:00,190,195,188,193,1000000\n" +
		"zzzz.us,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n")

	quotes, err := parseStooqQuotesCSV(body)
	if err != nil {
		t.Fatalf("parseStooqQuotesCSV: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}
	if quotes[0].Symbol != "aapl.us" || !quotes[0].Found {
		t.Fatalf("quote[0] = %+v, want found aapl.us", quotes[0])
	}
	if quotes[1].Symbol != "zzzz.us" || quotes[1].Found {
		t.Fatalf("quote[1] = %+v, want not-found zzzz.us", quotes[1])
	}
}
