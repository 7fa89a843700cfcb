package ledger

import (
	"strings"
	"time"

	"github.com/erazemk/vcledger/internal/model"
)

// LotNumber derives a lot number from an organization's settings, a
// product model name and a manufacture date.
//
// The model code is the model name's ASCII letters and digits, upper-cased
// and left-padded with zeros to the configured width.
func LotNumber(s model.LotSettings, modelName string, manufactured time.Time) (string, error) {
	if s.ModelDigits < 1 {
		return "", newError(CodeLotNumberFailed, "model code width must be positive")
	}

	var code strings.Builder
	for _, r := range modelName {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z':
			code.WriteRune(r)
		case r >= 'a' && r <= 'z':
			code.WriteRune(r - 'a' + 'A')
		}
	}
	if code.Len() == 0 {
		return "", newError(CodeLotNumberFailed, "model name %q has no letters or digits", modelName)
	}
	if code.Len() > s.ModelDigits {
		return "", newError(CodeLotNumberFailed, "model name %q does not fit in %d characters", modelName, s.ModelDigits)
	}

	var date string
	switch s.DateFormat {
	case model.DateFormatYYMMDD:
		date = manufactured.Format("060102")
	case model.DateFormatYYYYMMDD:
		date = manufactured.Format("20060102")
	case model.DateFormatYYJJJ:
		date = manufactured.Format("06002")
	default:
		return "", newError(CodeLotNumberFailed, "unknown date format %q", s.DateFormat)
	}

	return s.Prefix + strings.Repeat("0", s.ModelDigits-code.Len()) + code.String() + date, nil
}

// DefaultExpiry returns the day before the same calendar date months after
// manufactured.
func DefaultExpiry(manufactured time.Time, months int) time.Time {
	return manufactured.AddDate(0, months, 0).AddDate(0, 0, -1)
}
