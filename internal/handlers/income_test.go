package handlers

import "testing"

func TestAmountPattern(t *testing.T) {
	cases := []struct {
		amount string
		want   bool
	}{
		{"100", true},
		{"0.5", true},
		{"1234.56", true},
		{"1234.567", false},
		{".50", false},
		{"-100", false},
		{"1,000", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := amountPattern.MatchString(tc.amount); got != tc.want {
			t.Errorf("amountPattern(%q) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}
