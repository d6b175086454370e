package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCents renders an integer amount of cents as dollars with a thousands separator,
// e.g. 123456789 -> "$1,234,567.89".
func FormatCents(cents int64) string {
	d := decimal.New(cents, -2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatPrice renders a share price, which is always shown in cents below a dollar
// and in dollars from par upwards, matching the ticker board ("95¢", "$1.20").
func FormatPrice(cents int64) string {
	if cents >= 0 && cents < 100 {
		return decimal.NewFromInt(cents).String() + "¢"
	}
	return FormatCents(cents)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
