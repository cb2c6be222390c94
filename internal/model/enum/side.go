package enum

import "strings"

// Side is the board/trade side as stored in table rows.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) IsAvailable() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide normalizes a raw side string from feed payloads or callers.
func ParseSide(raw string) (Side, bool) {
	side := Side(strings.ToUpper(strings.TrimSpace(raw)))
	return side, side.IsAvailable()
}
