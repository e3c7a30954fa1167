package carbon

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrencyBRL formats a BRL value with the "R$" prefix, two decimals
// and a comma decimal separator. No thousands grouping is applied.
// Example: FormatCurrencyBRL(9.84) returns "R$ 9,84".
func FormatCurrencyBRL(value float64) string {
	return "R$ " + strings.Replace(strconv.FormatFloat(value, 'f', 2, 64), ".", ",", 1)
}

// FormatKg formats an emission in kilograms with one decimal using pt-BR
// separators. Example: FormatKg(76.8) returns "76,8 kg".
func FormatKg(kg float64) string {
	return newPrinter().Sprintf("%.1f kg", kg)
}

// FormatFactor formats an emission factor with two decimals.
// Example: FormatFactor(0.12) returns "0,12 kg/km".
func FormatFactor(factor float64) string {
	return newPrinter().Sprintf("%.2f kg/km", factor)
}

// FormatDistanceKm formats a distance in whole kilometers.
// Example: FormatDistanceKm(640) returns "640 km".
func FormatDistanceKm(km float64) string {
	return newPrinter().Sprintf("%.0f km", km)
}

// newPrinter returns a pt-BR printer. message.Printer is not safe for
// concurrent use, so each call gets its own.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.BrazilianPortuguese)
}
