package pipeline

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12,345.67", 12345.67},
		{"₪ 1,234.00", 1234},
		{"₪12,345.67", 12345.67},
		{"$ 99.50", 99.5},
		{"(500.00)", -500},
		{"250.00-", -250},
		{"-75.5", -75.5},
		{"0", 0},
		{"1,000,000.00", 1000000},
		{"  42.42  ", 42.42},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if err != nil {
			t.Errorf("parseAmount(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "N/A", "---", "₪"} {
		if _, err := parseAmount(in); err == nil {
			t.Errorf("parseAmount(%q) expected error", in)
		}
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"\n\t104-123456\n", "104-123456"},
		{" padded ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cellText(tt.in); got != tt.want {
			t.Errorf("cellText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
