package analytics

import (
	"time"

	"warden/internal/cases"
)

type Service struct {
	store *cases.Store
}

func New(store *cases.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Stats      cases.Stats
	ByStatus   map[cases.Status]int
	ByCategory map[cases.Category]int
	// ActionsSince counts action records newer than the cutoff handed to
	// Report, across the guild's cases.
	ActionsSince int
}

// Report summarizes a guild's moderation load. Counters derive from the live
// case list, so a deleted case never lingers in the numbers.
func (s *Service) Report(guildID string, since time.Time) Report {
	report := Report{
		Stats:      s.store.Stats(),
		ByStatus:   make(map[cases.Status]int),
		ByCategory: make(map[cases.Category]int),
	}
	for _, c := range s.store.ListCases(cases.ListParams{GuildID: guildID}) {
		report.ByStatus[c.Status]++
		report.ByCategory[c.Category]++
		for _, action := range c.Actions {
			if action.CreatedAt.After(since) {
				report.ActionsSince++
			}
		}
	}
	return report
}
