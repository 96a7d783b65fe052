package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Money is a decimal amount with two places, stored as hundredths.
type Money int64

const (
	moneyMaxDigits = 6
	moneyPlaces    = 2
)

// MoneyError describes why an amount was rejected.
type MoneyError struct {
	Input  string
	Reason string
}

func (e *MoneyError) Error() string { return e.Reason }

// ParseMoney parses "12", "12.5" or "12.50". More than two decimal places or
// six digits in total are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	invalid := &MoneyError{Input: s, Reason: "A valid number is required."}
	if s == "" {
		return 0, invalid
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, invalid
	}
	if hasDot && frac == "" {
		return 0, invalid
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, invalid
	}

	frac = strings.TrimRight(frac, "0")
	if len(frac) > moneyPlaces {
		return 0, &MoneyError{Input: s, Reason: "Ensure that there are no more than 2 decimal places."}
	}
	whole = strings.TrimLeft(whole, "0")
	if len(whole)+moneyPlaces > moneyMaxDigits {
		return 0, &MoneyError{Input: s, Reason: "Ensure that there are no more than 6 digits in total."}
	}

	for len(frac) < moneyPlaces {
		frac += "0"
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, invalid
	}
	if neg {
		n = -n
	}
	return Money(n), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Times returns the amount multiplied by a quantity
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

func (m Money) String() string {
	n := int64(m)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + strconv.FormatInt(n/100, 10) + "." + twoDigits(n%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return &MoneyError{Input: string(data), Reason: "A valid number is required."}
		}
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
