package services

import "testing"

func TestIsArithmeticQuery(t *testing.T) {
	cases := map[string]bool{
		"2 + 2":         true,
		"(3 + 4) * 2":   true,
		"10 / 4":        true,
		"3.5 * 2":       true,
		"what is 2 + 2": false,
		"hello":         false,
		"":              false,
		"42":            false, // no operator
		"+ - *":         false, // no digit
		"2 + 2 = ?":     false,
	}

	for query, want := range cases {
		if got := IsArithmeticQuery(query); got != want {
			t.Errorf("IsArithmeticQuery(%q) = %v, want %v", query, got, want)
		}
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	cases := map[string]string{
		"2 + 2":       "4",
		"10 - 3":      "7",
		"6 * 7":       "42",
		"10 / 4":      "2.5",
		"2 + 3 * 4":   "14",
		"(2 + 3) * 4": "20",
		"-5 + 10":     "5",
		"10 % 3":      "1",
	}

	for query, want := range cases {
		got, err := EvaluateArithmetic(query)
		if err != nil {
			t.Errorf("EvaluateArithmetic(%q) error: %v", query, err)
			continue
		}
		if got != want {
			t.Errorf("EvaluateArithmetic(%q) = %q, want %q", query, got, want)
		}
	}
}

func TestEvaluateArithmeticErrors(t *testing.T) {
	for _, query := range []string{"1 / 0", "5 % 0", "(2 + 3", "2 + + 3 )"} {
		if _, err := EvaluateArithmetic(query); err == nil {
			t.Errorf("EvaluateArithmetic(%q) expected an error", query)
		}
	}
}
