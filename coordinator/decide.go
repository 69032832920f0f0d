package coordinator

import (
	"fmt"

	"mealplanner"
)

type Decision int

const (
	Advance Decision = iota
	Retry
)

func (d Decision) String() string {
	switch d {
	case Advance:
		return "advance"
	case Retry:
		return "retry"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide routes a validated meal. With failures left and no retries remaining
// the meal advances anyway and the issues come back as warnings.
func Decide(failed []mealplanner.ValidationResult, retryCount, maxRetries int) (Decision, []string) {
	if len(failed) == 0 {
		return Advance, nil
	}
	if retryCount >= maxRetries {
		var warnings []string
		for _, r := range failed {
			if len(r.Issues) == 0 {
				warnings = append(warnings, fmt.Sprintf("[%s] %s", r.Validator, r.Reason))
				continue
			}
			for _, issue := range r.Issues {
				warnings = append(warnings, fmt.Sprintf("[%s] %s", r.Validator, issue))
			}
		}
		return Advance, warnings
	}
	return Retry, nil
}
