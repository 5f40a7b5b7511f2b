package domain

import "testing"

func TestMergeTail(t *testing.T) {
	series := []Candle{
		{TimeUnix: 60, Open: 1, High: 2, Low: 1, Close: 2},
		{TimeUnix: 120, Open: 2, High: 3, Low: 2, Close: 3},
	}

	// Same bucket amends the last bar in place.
	series = MergeTail(series, Candle{TimeUnix: 120, Open: 2, High: 4, Low: 2, Close: 4})
	if len(series) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series))
	}
	if series[1].Close != 4 {
		t.Errorf("expected amended close 4, got %d", series[1].Close)
	}

	// Newer bucket appends.
	series = MergeTail(series, Candle{TimeUnix: 180, Open: 4, High: 5, Low: 4, Close: 5})
	if len(series) != 3 || series[2].TimeUnix != 180 {
		t.Fatalf("expected appended bar at 180, got %+v", series)
	}

	// Older bucket is dropped.
	series = MergeTail(series, Candle{TimeUnix: 60, Close: 9})
	if len(series) != 3 || series[0].Close == 9 {
		t.Errorf("stale update must be dropped")
	}
}

func TestViewKey(t *testing.T) {
	if got := ViewKey("BTCUSDT", TF5m); got != "BTCUSDT:5m" {
		t.Errorf("ViewKey mismatch: %s", got)
	}
}
