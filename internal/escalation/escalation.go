package escalation

import (
	"fmt"

	"warden/internal/cases"
	"warden/internal/config"
)

// Source marks action records produced by automatic escalation.
const Source = "auto-escalation"

const defaultAutoTimeoutMinutes = 10

// transitions is the whole ladder: the strongest follow-up for each action.
// Ban and kick map to nothing, which is what bounds escalation to at most two
// hops (warn -> timeout -> ban) regardless of call depth.
var transitions = map[cases.ActionType]cases.ActionType{
	cases.ActionWarn:    cases.ActionTimeout,
	cases.ActionTimeout: cases.ActionBan,
}

// Next returns the follow-up action for a given action, or "" when the
// ladder ends.
func Next(action cases.ActionType) cases.ActionType {
	return transitions[action]
}

type Decision struct {
	Action          cases.ActionType
	DurationMinutes int
	Reason          string
}

// Evaluate decides whether the action just recorded must auto-escalate,
// given the member's refreshed totals. Thresholds use modulo arithmetic so
// every repeated crossing re-triggers, not just the first.
//
// The ban path deliberately sums warnings and timeouts even though an
// escalated warning already produced one of those timeouts; the double count
// is the intended fast path for serial offenders.
func Evaluate(just cases.ActionType, totals cases.UserTotals, cfg config.Escalation) *Decision {
	next := Next(just)
	if next == "" {
		return nil
	}

	switch just {
	case cases.ActionWarn:
		hit := (cfg.WarnThreshold > 0 && totals.Warnings%cfg.WarnThreshold == 0) ||
			(cfg.TimeoutThreshold > 0 && totals.Warnings%cfg.TimeoutThreshold == 0)
		if !hit || totals.Warnings == 0 {
			return nil
		}
		minutes := cfg.AutoTimeoutMinutes
		if minutes <= 0 {
			minutes = defaultAutoTimeoutMinutes
		}
		return &Decision{
			Action:          next,
			DurationMinutes: minutes,
			Reason:          fmt.Sprintf("automatic timeout after %d warnings", totals.Warnings),
		}
	case cases.ActionTimeout:
		hit := (cfg.TimeoutThreshold > 0 && totals.Timeouts%cfg.TimeoutThreshold == 0 && totals.Timeouts > 0) ||
			(cfg.BanThreshold > 0 && totals.Warnings+totals.Timeouts >= cfg.BanThreshold)
		if !hit {
			return nil
		}
		return &Decision{
			Action: next,
			Reason: fmt.Sprintf("automatic ban after %d warnings and %d timeouts", totals.Warnings, totals.Timeouts),
		}
	default:
		return nil
	}
}
