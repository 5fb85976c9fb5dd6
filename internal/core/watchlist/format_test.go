package watchlist

import "testing"

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price  int64
		format string
		want   string
	}{
		{1500000, "gp", "1,500,000 gp"},
		{999, "gp", "999 gp"},
		{1500000, "compact", "1.5M gp"},
		{12345, "compact", "12.3K gp"},
		{2100000000, "compact", "2.1B gp"},
		{750, "compact", "750 gp"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.price, tt.format); got != tt.want {
			t.Errorf("FormatPrice(%d, %q) = %q, want %q", tt.price, tt.format, got, tt.want)
		}
	}
}
