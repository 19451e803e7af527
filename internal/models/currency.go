package models

import "strings"

var fiatCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "CHF": {}, "CAD": {}, "AUD": {}, "NZD": {},
	"SEK": {}, "NOK": {}, "DKK": {}, "PLN": {}, "CZK": {}, "HUF": {}, "RON": {}, "BGN": {},
	"TRY": {}, "RUB": {}, "UAH": {}, "CNY": {}, "HKD": {}, "SGD": {}, "KRW": {}, "INR": {},
	"VND": {}, "THB": {}, "IDR": {}, "PHP": {}, "MYR": {}, "BRL": {}, "MXN": {}, "ARS": {},
	"ZAR": {}, "ILS": {}, "AED": {},
}

// IsFiatCurrency checks if a currency code is a government-issued currency.
func IsFiatCurrency(code string) bool {
	_, ok := fiatCurrencies[strings.ToUpper(code)]
	return ok
}

// NormalizeCode upper-cases and trims an asset or currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
