package violation

import (
	"testing"

	"warden/internal/config"
)

func TestDetectPriorityOrder(t *testing.T) {
	filters := config.Filters{
		BlockLinks:     true,
		BlockInvites:   true,
		BlockMedia:     true,
		ProfanityWords: []string{"slur"},
		Keywords:       []string{"free nitro"},
	}

	// A message matching several rules reports only the highest-priority one.
	v := Detect("free nitro slur https://scam.example/x discord.gg/abc", 2, filters)
	if v == nil || v.Rule != RuleLinks {
		t.Fatalf("expected links to win, got %+v", v)
	}
	if v.Detail != "scam.example" {
		t.Fatalf("expected normalized host, got %q", v.Detail)
	}

	filters.BlockLinks = false
	v = Detect("join discord.gg/abc now", 0, filters)
	if v == nil || v.Rule != RuleInvites {
		t.Fatalf("expected invites, got %+v", v)
	}

	v = Detect("look at this", 1, filters)
	if v == nil || v.Rule != RuleMedia {
		t.Fatalf("expected media, got %+v", v)
	}

	v = Detect("what a slur!", 0, filters)
	if v == nil || v.Rule != RuleProfanity {
		t.Fatalf("expected profanity, got %+v", v)
	}

	v = Detect("get your FREE NITRO here", 0, filters)
	if v == nil || v.Rule != RuleKeywords {
		t.Fatalf("expected keywords, got %+v", v)
	}
}

func TestProfanityIsWordBoundary(t *testing.T) {
	filters := config.Filters{ProfanityWords: []string{"ass"}}

	if v := Detect("classic assassination", 0, filters); v != nil {
		t.Fatalf("substring must not match, got %+v", v)
	}
	if v := Detect("you ass.", 0, filters); v == nil || v.Rule != RuleProfanity {
		t.Fatalf("expected profanity match, got %+v", v)
	}
}

func TestDetectCleanContent(t *testing.T) {
	filters := config.Filters{BlockInvites: true, ProfanityWords: []string{"slur"}}
	if v := Detect("hello there, everything is fine", 0, filters); v != nil {
		t.Fatalf("expected no violation, got %+v", v)
	}
}
