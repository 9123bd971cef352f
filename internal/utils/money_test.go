package utils

import "testing"

func TestFormatLKR(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "LKR 0"},
		{900, "LKR 900"},
		{5400, "LKR 5,400"},
		{1234567, "LKR 1,234,567"},
		{-2700, "-LKR 2,700"},
	}
	for _, tc := range cases {
		if got := FormatLKR(tc.in); got != tc.want {
			t.Errorf("FormatLKR(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"5,400", 5400},
		{" 2700 ", 2700},
		{"", 0},
		{"free", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLastNDigits(t *testing.T) {
	if got := LastNDigits("+94 77 712 3456", 9); got != "777123456" {
		t.Errorf("LastNDigits = %q", got)
	}
	if got := LastNDigits("123", 9); got != "123" {
		t.Errorf("short input = %q, want passthrough digits", got)
	}
}
