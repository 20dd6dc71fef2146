package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedInput wraps every input-data rejection.
var ErrMalformedInput = errors.New("malformed input")

// Bar is one aligned observation of the pair.
type Bar struct {
	Time time.Time
	Y    float64
	X    float64
}

// ValidateBars checks that prices are finite and positive and that times
// strictly increase.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if !validPrice(b.Y) || !validPrice(b.X) {
			return fmt.Errorf("%w: bar %d (%s): prices must be finite and positive, got y=%v x=%v",
				ErrMalformedInput, i, b.Time.Format(time.RFC3339), b.Y, b.X)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d: time %s does not follow %s",
				ErrMalformedInput, i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
