package announce

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"releasewatch/internal/catalog"
	"releasewatch/internal/release"
)

// NotApplicable stands in for absent fields.
const NotApplicable = "N/A"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"KRW": "₩",
	"INR": "₹",
	"RUB": "₽",
	"UAH": "₴",
	"TRY": "₺",
	"ILS": "₪",
	"VND": "₫",
	"PHP": "₱",
	"THB": "฿",
	"BRL": "R$",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"SGD": "S$",
	"TWD": "NT$",
	"MXN": "Mex$",
}

// FormatPrice renders the commercial terms of an item.
func FormatPrice(meta catalog.ItemMeta) string {
	if meta.IsFree {
		return "Free"
	}
	if meta.Price == nil {
		return NotApplicable
	}
	p := meta.Price
	text := formatAmount(p.Currency, p.Final)
	if p.DiscountPercent > 0 && p.DiscountPercent <= 100 {
		discounted := p.Final * int64(100-p.DiscountPercent) / 100
		text += fmt.Sprintf(" (-%d%% → %s)", p.DiscountPercent, formatAmount(p.Currency, discounted))
	}
	return text
}

func formatAmount(currency string, minor int64) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, minor/100, minor%100)
}

// FormatReleaseDate renders a storefront date as "2006-01-02 (a Monday)".
// Unparseable dates are passed through untouched.
func FormatReleaseDate(value string) string {
	date, ok := release.ParseDate(value)
	if !ok {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return NotApplicable
	}
	return fmt.Sprintf("%s (a %s)", date.Format("2006-01-02"), date.Weekday())
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return NotApplicable
	}
	return strings.Join(values, ", ")
}

func taxaLabels(taxa []catalog.Taxon) []string {
	labels := make([]string, 0, len(taxa))
	for _, t := range taxa {
		if t.Description != "" {
			labels = append(labels, t.Description)
		}
	}
	return labels
}

func firstOrNA(values []string) string {
	if len(values) == 0 || values[0] == "" {
		return NotApplicable
	}
	return values[0]
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotApplicable
	}
	return value
}

// truncateRunes cuts s to at most limit runes, marking the cut with an ellipsis.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit-1]), " ") + "…"
}
