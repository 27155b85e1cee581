package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// Messages attached to dates completed with default values.
const (
	MsgAutoFilledMonthAndDay = "Auto filled month and day"
	MsgAutoFilledDay         = "Auto filled day"
)

// DateResult is a repaired traced date.
type DateResult struct {
	// Value is the date as YYYY-MM-DD, or "" for an empty input.
	Value string

	// AutoFilled is set when the month and/or day were defaulted to 01.
	AutoFilled bool

	// Message explains the auto-fill; empty otherwise.
	Message string
}

// NormalizeDate repairs a traced date.
// Non-digits are dropped; 8 digits are a full date, 6 digits get day 01 and
// 4 digits get month and day 01. Any other length, or digits that do not name
// a real calendar day such as 20230230, return domain.ErrMalformedDate.
func NormalizeDate(raw string) (DateResult, error) {
	if raw == "" {
		return DateResult{}, nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	var res DateResult
	switch len(digits) {
	case 8:
	case 6:
		digits += "01"
		res.AutoFilled = true
		res.Message = MsgAutoFilledDay
	case 4:
		digits += "0101"
		res.AutoFilled = true
		res.Message = MsgAutoFilledMonthAndDay
	default:
		return DateResult{}, fmt.Errorf("%w: %q has %d digits", domain.ErrMalformedDate, raw, len(digits))
	}

	if _, err := time.Parse("20060102", digits); err != nil {
		return DateResult{}, fmt.Errorf("%w: %q is not a calendar date", domain.ErrMalformedDate, raw)
	}

	res.Value = digits[:4] + "-" + digits[4:6] + "-" + digits[6:]
	return res, nil
}
