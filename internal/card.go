package internal

import (
	"fmt"
	"strings"
)

// CardBrand labels a card number by its leading digits. The label is used
// for nicknames only and plays no part in payment decisions.
//
// Prefixes are checked in order, so "60" resolves to DISCOVER before RUPAY.
func CardBrand(number string) string {
	d := onlyDigits(number)
	switch {
	case strings.HasPrefix(d, "4"):
		return "VISA"
	case len(d) >= 2 && d[0] == '5' && d[1] >= '1' && d[1] <= '5':
		return "MASTERCARD"
	case hasAnyPrefix(d, "34", "37"):
		return "AMEX"
	case hasAnyPrefix(d, "60", "65"):
		return "DISCOVER"
	case strings.HasPrefix(d, "35"):
		return "JCB"
	case hasAnyPrefix(d, "81", "60"):
		return "RUPAY"
	}
	return "CARD"
}

// maskedNickname renders "BRAND •••• last4".
func maskedNickname(brand, last4 string) string {
	return fmt.Sprintf("%s •••• %s", brand, last4)
}

func lastFour(number string) string {
	d := onlyDigits(number)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
