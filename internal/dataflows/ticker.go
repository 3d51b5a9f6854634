package dataflows

import "strings"

// FormatTicker normalises exchange suffixes for Yahoo-style symbols.
//
//	700.HK    -> 0700.HK
//	600519.SH -> 600519.SS
//	2330      -> 2330.TW
//	700       -> 0700.HK
//	600519    -> 600519.SS
//	000001    -> 000001.SZ
func FormatTicker(ticker string) string {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return ticker
	}

	if dot := strings.LastIndex(ticker, "."); dot > 0 {
		code, suffix := ticker[:dot], strings.ToUpper(ticker[dot+1:])
		switch suffix {
		case "HK":
			if isDigits(code) {
				code = zfill(code, 4)
			}
			return strings.ToUpper(code) + ".HK"
		case "SH":
			return code + ".SS"
		}
		return ticker
	}

	if !isDigits(ticker) {
		return ticker
	}

	switch n := len(ticker); {
	case n == 4 && !strings.HasPrefix(ticker, "000"):
		return ticker + ".TW"
	case n <= 4:
		return zfill(ticker, 4) + ".HK"
	case n == 6 && ticker[0] == '6':
		return ticker + ".SS"
	case n == 6 && (ticker[0] == '0' || ticker[0] == '2' || ticker[0] == '3'):
		return ticker + ".SZ"
	case n == 6:
		return ticker + ".SS"
	}
	return ticker
}

// Market returns the exchange suffix of a formatted ticker, or "US".
func Market(ticker string) string {
	if dot := strings.LastIndex(ticker, "."); dot > 0 {
		return strings.ToUpper(ticker[dot+1:])
	}
	return "US"
}

// IsAsianListing reports whether ticker trades on a venue Longport covers.
func IsAsianListing(ticker string) bool {
	switch Market(FormatTicker(ticker)) {
	case "HK", "SS", "SZ":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
