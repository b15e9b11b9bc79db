package handlers

import "testing"

func TestValidPassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Str0ng!Pass", true},
		{"aB1!", true},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial123", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := validPassword(tc.password); got != tc.want {
			t.Errorf("validPassword(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}

func TestUsernamePattern(t *testing.T) {
	cases := []struct {
		username string
		want     bool
	}{
		{"alice01", true},
		{"a-b_c99", true},
		{"Alice01", false},
		{"alice 01", false},
		{"alice@01", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := usernamePattern.MatchString(tc.username); got != tc.want {
			t.Errorf("usernamePattern(%q) = %v, want %v", tc.username, got, tc.want)
		}
	}
}
