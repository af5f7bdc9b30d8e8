package workout

import (
	"fmt"
)

// SelectSplit maps the number of weekly training days to a split archetype.
func SelectSplit(daysPerWeek int) (Split, error) {
	switch {
	case daysPerWeek <= 0:
		return "", fmt.Errorf("%w: days per week must be positive, got %d", ErrInvalidInput, daysPerWeek)
	case daysPerWeek <= 3: //nolint:mnd // full body up to three days.
		return SplitFullBody, nil
	case daysPerWeek == 4: //nolint:mnd // four days is the classic upper/lower.
		return SplitUpperLower, nil
	default:
		return SplitPushPullLegs, nil
	}
}
