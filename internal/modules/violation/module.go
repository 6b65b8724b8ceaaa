package violation

import (
	"net/url"
	"regexp"
	"strings"

	"warden/internal/config"

	"golang.org/x/net/idna"
)

const (
	RuleLinks     = "links"
	RuleInvites   = "invites"
	RuleMedia     = "media"
	RuleProfanity = "profanity"
	RuleKeywords  = "keywords"
)

type Violation struct {
	Rule   string
	Detail string
}

var (
	linkRegex   = regexp.MustCompile(`https?://[^\s]+`)
	inviteRegex = regexp.MustCompile(`(?i)(?:discord\.gg|discord(?:app)?\.com/invite)/[a-zA-Z0-9-]+`)
	tokenRegex  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Detect classifies message content against the filter snapshot. Rules are
// checked in a fixed priority order and the first match wins; the function
// has no side effects.
func Detect(content string, attachments int, filters config.Filters) *Violation {
	lowered := strings.ToLower(content)

	if filters.BlockLinks {
		if raw := linkRegex.FindString(lowered); raw != "" {
			return &Violation{Rule: RuleLinks, Detail: normalizeHost(raw)}
		}
	}
	if filters.BlockInvites {
		if match := inviteRegex.FindString(lowered); match != "" {
			return &Violation{Rule: RuleInvites, Detail: match}
		}
	}
	if filters.BlockMedia && attachments > 0 {
		return &Violation{Rule: RuleMedia, Detail: "attachment"}
	}
	if len(filters.ProfanityWords) > 0 {
		tokens := tokenSet(lowered)
		for _, word := range filters.ProfanityWords {
			if _, ok := tokens[strings.ToLower(word)]; ok {
				return &Violation{Rule: RuleProfanity, Detail: word}
			}
		}
	}
	for _, keyword := range filters.Keywords {
		needle := strings.ToLower(keyword)
		if needle != "" && strings.Contains(lowered, needle) {
			return &Violation{Rule: RuleKeywords, Detail: keyword}
		}
	}
	return nil
}

// tokenSet splits on non-alphanumerics so profanity matching is
// word-boundary, not substring.
func tokenSet(lowered string) map[string]struct{} {
	tokens := tokenRegex.Split(lowered, -1)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

func normalizeHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(parsed.Hostname())
	if ascii, err := idna.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	if host == "" {
		return raw
	}
	return host
}
