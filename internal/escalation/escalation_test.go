package escalation

import (
	"testing"

	"warden/internal/cases"
	"warden/internal/config"
)

func TestWarnThresholdRepeats(t *testing.T) {
	cfg := config.Escalation{WarnThreshold: 3, AutoTimeoutMinutes: 15}

	for warnings := 1; warnings <= 9; warnings++ {
		decision := Evaluate(cases.ActionWarn, cases.UserTotals{Warnings: warnings}, cfg)
		if warnings%3 == 0 {
			if decision == nil || decision.Action != cases.ActionTimeout {
				t.Fatalf("warning %d: expected timeout decision, got %+v", warnings, decision)
			}
			if decision.DurationMinutes != 15 {
				t.Fatalf("warning %d: expected configured duration, got %d", warnings, decision.DurationMinutes)
			}
		} else if decision != nil {
			t.Fatalf("warning %d: expected no escalation, got %+v", warnings, decision)
		}
	}
}

func TestTimeoutThresholdEscalatesToBan(t *testing.T) {
	cfg := config.Escalation{TimeoutThreshold: 2}

	if d := Evaluate(cases.ActionTimeout, cases.UserTotals{Timeouts: 1}, cfg); d != nil {
		t.Fatalf("expected no ban at 1 timeout, got %+v", d)
	}
	d := Evaluate(cases.ActionTimeout, cases.UserTotals{Timeouts: 2}, cfg)
	if d == nil || d.Action != cases.ActionBan {
		t.Fatalf("expected ban at 2 timeouts, got %+v", d)
	}
}

// The cumulative-offense formula counts a warning that already escalated
// into a timeout twice (once as the warning, once as the timeout). That is
// the literal upstream behavior: it shortens the road to a ban for members
// who keep re-offending.
func TestBanThresholdDoubleCountsEscalatedWarnings(t *testing.T) {
	cfg := config.Escalation{BanThreshold: 6}

	d := Evaluate(cases.ActionTimeout, cases.UserTotals{Warnings: 4, Timeouts: 2}, cfg)
	if d == nil || d.Action != cases.ActionBan {
		t.Fatalf("expected ban at warnings+timeouts >= 6, got %+v", d)
	}
	if d2 := Evaluate(cases.ActionTimeout, cases.UserTotals{Warnings: 3, Timeouts: 2}, cfg); d2 != nil {
		t.Fatalf("expected no ban below threshold, got %+v", d2)
	}
}

func TestLadderEnds(t *testing.T) {
	cfg := config.Escalation{WarnThreshold: 1, TimeoutThreshold: 1, BanThreshold: 1}

	if d := Evaluate(cases.ActionBan, cases.UserTotals{Bans: 5, Warnings: 5, Timeouts: 5}, cfg); d != nil {
		t.Fatalf("ban must not escalate, got %+v", d)
	}
	if d := Evaluate(cases.ActionKick, cases.UserTotals{Kicks: 5}, cfg); d != nil {
		t.Fatalf("kick must not escalate, got %+v", d)
	}
	if Next(cases.ActionWarn) != cases.ActionTimeout || Next(cases.ActionTimeout) != cases.ActionBan {
		t.Fatalf("unexpected transition table")
	}
	if Next(cases.ActionBan) != "" {
		t.Fatalf("ban must be terminal in the ladder")
	}
}

func TestZeroThresholdsDisableEscalation(t *testing.T) {
	if d := Evaluate(cases.ActionWarn, cases.UserTotals{Warnings: 12}, config.Escalation{}); d != nil {
		t.Fatalf("expected disabled escalation, got %+v", d)
	}
}
