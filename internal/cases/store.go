package cases

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Store owns the case graph, the audit trails and the per-user totals. It is
// the single writer: every mutation runs under one mutex through the in-memory
// update and the snapshot write, so concurrent callers cannot interleave
// read-modify-write cycles. Reads return deep copies. If the snapshot write
// fails the in-memory state keeps the mutation as last-known-good and the
// call reports ErrPersistence.
type Store struct {
	mu        sync.RWMutex
	clock     Clock
	logger    *zap.Logger
	persister Persister
	bus       *bus

	cases  []*Case
	byID   map[string]*Case
	totals map[string]*UserTotals
	stats  Stats
}

func New(ctx context.Context, persister Persister, logger *zap.Logger) (*Store, error) {
	state, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s := &Store{
		clock:     realClock{},
		logger:    logger,
		persister: persister,
		bus:       newBus(),
		byID:      make(map[string]*Case),
		totals:    make(map[string]*UserTotals),
	}
	for _, c := range state.Cases {
		s.cases = append(s.cases, c)
		s.byID[c.ID] = c
	}
	for i := range state.Totals {
		totals := state.Totals[i]
		s.totals[totalsKey(totals.GuildID, totals.UserID)] = &totals
	}
	s.stats = state.Stats
	return s, nil
}

func (s *Store) WithClock(clock Clock) {
	s.clock = clock
}

// Subscribe registers a listener for store events. Delivery is best-effort,
// at-most-once, no replay; call Stats or ListCases for current state.
func (s *Store) Subscribe(fn func(Event)) func() {
	return s.bus.subscribe(fn)
}

type RecordEntry struct {
	GuildID         string
	UserID          string
	UserTag         string
	Action          ActionType
	Reason          string
	DurationMinutes int
	ModeratorID     string
	ModeratorTag    string
	Source          string
	Metadata        map[string]string
}

type RecordResult struct {
	Case   *Case
	Action ActionRecord
	Totals UserTotals
}

// RecordCase applies one enforcement event: it finds or creates the active
// moderation case, appends a system message and the action record, writes one
// audit entry, bumps the user totals and global counters, and persists.
func (s *Store) RecordCase(ctx context.Context, entry RecordEntry) (RecordResult, error) {
	if entry.GuildID == "" || entry.UserID == "" {
		return RecordResult{}, fmt.Errorf("%w: guildId and userId are required", ErrValidation)
	}
	action, ok := NormalizeAction(string(entry.Action))
	if !ok {
		return RecordResult{}, fmt.Errorf("%w: unknown action %q", ErrValidation, entry.Action)
	}

	s.mu.Lock()
	now := s.clock.Now()
	c, created := s.findOrCreateLocked(entry.GuildID, entry.UserID, entry.UserTag, CategoryModeration, entry.Reason, now)

	record := ActionRecord{
		ID:              uuid.NewString(),
		Type:            action,
		Reason:          entry.Reason,
		DurationMinutes: entry.DurationMinutes,
		ModeratorID:     entry.ModeratorID,
		ModeratorTag:    entry.ModeratorTag,
		Source:          entry.Source,
		CreatedAt:       now,
		Metadata:        entry.Metadata,
	}
	c.Actions = append(c.Actions, record)
	trimActions(c)

	c.Messages = append(c.Messages, Message{
		ID:         uuid.NewString(),
		AuthorType: AuthorSystem,
		Body:       describeAction(record),
		Via:        "system",
		CreatedAt:  now,
	})
	trimMessages(c)
	c.LastMessageAt = now

	actor := entry.ModeratorTag
	if actor == "" {
		actor = entry.Source
	}
	s.appendAuditLocked(c, "action", actor, fmt.Sprintf("%s: %s", action, entry.Reason), now)

	if entry.ModeratorID != "" {
		addParticipant(c, AuthorModerator, entry.ModeratorID, entry.ModeratorTag)
	}
	addParticipant(c, AuthorMember, entry.UserID, entry.UserTag)
	c.UpdatedAt = now
	s.maybeAssignSubjectLocked(c)

	totals := s.bumpTotalsLocked(entry.GuildID, entry.UserID, action, now)
	s.bumpStatsLocked(action, 1)

	events := []Event{}
	if created {
		events = append(events, Event{Kind: EventCaseCreated, GuildID: c.GuildID, CaseID: c.ID, At: now})
	}
	events = append(events,
		Event{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		Event{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	)

	result := RecordResult{Case: cloneCase(c), Action: record, Totals: *totals}
	err := s.saveLocked(ctx)
	s.mu.Unlock()

	s.bus.publish(events)
	return result, err
}

type IncomingMessage struct {
	AuthorType AuthorType
	AuthorID   string
	AuthorTag  string
	Body       string
	Via        string
}

type EnsureParams struct {
	GuildID    string
	UserID     string
	UserTag    string
	Category   Category
	TicketType string
	Topic      string
	Reason     string
	// ForceNew bypasses any existing case: an active one is archived first so
	// the one-active-case rule keeps holding.
	ForceNew       bool
	InitialMessage *IncomingMessage
}

type EnsureResult struct {
	Case    *Case
	Created bool
	Message *Message
}

// EnsureMemberCase finds the member's active case in the category or creates
// one. An initial member message moves the case to pending-response.
func (s *Store) EnsureMemberCase(ctx context.Context, params EnsureParams) (EnsureResult, error) {
	if params.GuildID == "" || params.UserID == "" {
		return EnsureResult{}, fmt.Errorf("%w: guildId and userId are required", ErrValidation)
	}
	category := params.Category
	if category == "" {
		category = CategoryTicket
	}
	if category != CategoryModeration && category != CategoryTicket {
		return EnsureResult{}, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	if params.InitialMessage != nil && params.InitialMessage.AuthorType != AuthorBot &&
		strings.TrimSpace(params.InitialMessage.Body) == "" {
		return EnsureResult{}, ErrEmptyMessage
	}

	s.mu.Lock()
	now := s.clock.Now()

	existing := s.findActiveLocked(params.GuildID, params.UserID, category)
	mutated := false
	events := []Event{}

	if existing != nil && params.ForceNew {
		existing.Status = StatusArchived
		existing.UnreadCount = 0
		existing.UpdatedAt = now
		s.appendAuditLocked(existing, "status", "system", "archived before reopen", now)
		events = append(events, Event{Kind: EventCaseStatus, GuildID: existing.GuildID, CaseID: existing.ID, At: now})
		existing = nil
		mutated = true
	}

	var c *Case
	created := false
	if existing != nil {
		c = existing
	} else {
		c = s.createCaseLocked(params.GuildID, params.UserID, params.UserTag, category, params.Reason, now)
		c.TicketType = params.TicketType
		if params.Topic != "" {
			c.Metadata["topic"] = params.Topic
		}
		s.appendAuditLocked(c, "created", params.UserTag, string(category), now)
		created = true
		mutated = true
		events = append(events, Event{Kind: EventCaseCreated, GuildID: c.GuildID, CaseID: c.ID, At: now})
	}

	var appended *Message
	if params.InitialMessage != nil && params.InitialMessage.AuthorType != AuthorBot {
		msg := s.appendMessageLocked(c, *params.InitialMessage, now)
		appended = &msg
		if !created {
			s.appendAuditLocked(c, "message", params.InitialMessage.AuthorTag, string(params.InitialMessage.AuthorType), now)
		}
		mutated = true
		events = append(events, Event{Kind: EventCaseMessage, GuildID: c.GuildID, CaseID: c.ID, At: now})
	}

	s.maybeAssignSubjectLocked(c)

	var err error
	if mutated {
		c.UpdatedAt = now
		events = append(events,
			Event{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
			Event{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
		)
		err = s.saveLocked(ctx)
	}
	result := EnsureResult{Case: cloneCase(c), Created: created, Message: appended}
	s.mu.Unlock()

	s.bus.publish(events)
	return result, err
}

type AppendParams struct {
	GuildID    string
	CaseID     string
	AuthorType AuthorType
	AuthorID   string
	AuthorTag  string
	Body       string
	Via        string
}

// AppendCaseMessage stores one message. Bot-authored messages are silently
// dropped and never stored.
func (s *Store) AppendCaseMessage(ctx context.Context, params AppendParams) (*Message, error) {
	if params.AuthorType == AuthorBot {
		return nil, nil
	}
	if strings.TrimSpace(params.Body) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	c := s.findByIDLocked(params.GuildID, params.CaseID)
	if c == nil {
		s.mu.Unlock()
		return nil, ErrCaseNotFound
	}
	now := s.clock.Now()
	msg := s.appendMessageLocked(c, IncomingMessage{
		AuthorType: params.AuthorType,
		AuthorID:   params.AuthorID,
		AuthorTag:  params.AuthorTag,
		Body:       params.Body,
		Via:        params.Via,
	}, now)
	s.appendAuditLocked(c, "message", params.AuthorTag, string(params.AuthorType), now)
	c.UpdatedAt = now
	s.maybeAssignSubjectLocked(c)

	events := []Event{
		{Kind: EventCaseMessage, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	}
	err := s.saveLocked(ctx)
	out := msg
	s.mu.Unlock()

	s.bus.publish(events)
	return &out, err
}

type StatusParams struct {
	GuildID string
	CaseID  string
	Status  string
	Actor   string
	Note    string
}

// UpdateCaseStatus normalizes and applies a status. Unchanged status with no
// note is an idempotent no-op: nothing is written or emitted.
func (s *Store) UpdateCaseStatus(ctx context.Context, params StatusParams) (*Case, error) {
	status, ok := NormalizeStatus(params.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, params.Status)
	}

	s.mu.Lock()
	c := s.findByIDLocked(params.GuildID, params.CaseID)
	if c == nil {
		s.mu.Unlock()
		return nil, ErrCaseNotFound
	}

	changed := c.Status != status
	if !changed && params.Note == "" {
		out := cloneCase(c)
		s.mu.Unlock()
		return out, nil
	}

	now := s.clock.Now()
	detail := string(status)
	if changed {
		detail = fmt.Sprintf("%s -> %s", c.Status, status)
		c.Status = status
		if status.Terminal() {
			c.UnreadCount = 0
		}
	}
	if params.Note != "" {
		detail += ": " + params.Note
	}
	s.appendAuditLocked(c, "status", params.Actor, detail, now)
	c.UpdatedAt = now

	events := []Event{
		{Kind: EventCaseStatus, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	}
	err := s.saveLocked(ctx)
	out := cloneCase(c)
	s.mu.Unlock()

	s.bus.publish(events)
	return out, err
}

func (s *Store) SetAssignee(ctx context.Context, guildID, caseID, assignee, actor string) (*Case, error) {
	s.mu.Lock()
	c := s.findByIDLocked(guildID, caseID)
	if c == nil {
		s.mu.Unlock()
		return nil, ErrCaseNotFound
	}
	now := s.clock.Now()
	c.Assignee = assignee
	detail := assignee
	if detail == "" {
		detail = "unassigned"
	}
	s.appendAuditLocked(c, "assignee", actor, detail, now)
	c.UpdatedAt = now

	events := []Event{
		{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	}
	err := s.saveLocked(ctx)
	out := cloneCase(c)
	s.mu.Unlock()

	s.bus.publish(events)
	return out, err
}

func (s *Store) SetSLA(ctx context.Context, guildID, caseID string, dueAt time.Time, completed bool, actor string) (*Case, error) {
	s.mu.Lock()
	c := s.findByIDLocked(guildID, caseID)
	if c == nil {
		s.mu.Unlock()
		return nil, ErrCaseNotFound
	}
	now := s.clock.Now()
	if c.SLA == nil {
		c.SLA = &SLA{}
	}
	if !dueAt.IsZero() {
		c.SLA.DueAt = dueAt
	}
	detail := "due " + c.SLA.DueAt.Format(time.RFC3339)
	if completed {
		done := now
		c.SLA.CompletedAt = &done
		detail = "completed"
	}
	s.appendAuditLocked(c, "sla", actor, detail, now)
	c.UpdatedAt = now

	events := []Event{
		{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	}
	err := s.saveLocked(ctx)
	out := cloneCase(c)
	s.mu.Unlock()

	s.bus.publish(events)
	return out, err
}

// DeleteCase removes a case, reverses its share of the global counters and
// rebuilds the member's totals from the surviving cases, so totals never
// drift from what a replay would produce.
func (s *Store) DeleteCase(ctx context.Context, guildID, caseID, actor string) error {
	s.mu.Lock()
	c := s.findByIDLocked(guildID, caseID)
	if c == nil {
		s.mu.Unlock()
		return ErrCaseNotFound
	}
	now := s.clock.Now()

	for _, action := range c.Actions {
		s.bumpStatsLocked(action.Type, -1)
	}
	delete(s.byID, c.ID)
	for i, candidate := range s.cases {
		if candidate.ID == c.ID {
			s.cases = append(s.cases[:i], s.cases[i+1:]...)
			break
		}
	}
	s.rebuildTotalsLocked(c.GuildID, c.UserID)

	events := []Event{
		{Kind: EventCaseDeleted, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventCasesUpdated, GuildID: c.GuildID, CaseID: c.ID, At: now},
		{Kind: EventStatsUpdated, GuildID: c.GuildID, At: now},
	}
	err := s.saveLocked(ctx)
	s.mu.Unlock()

	if err == nil {
		s.logger.Info("case deleted",
			zap.String("guild_id", guildID),
			zap.String("case_id", caseID),
			zap.String("actor", actor))
	}
	s.bus.publish(events)
	return err
}

type ListParams struct {
	GuildID  string
	Status   Status
	Category Category
	Limit    int
}

// ListCases filters then returns clones, most recently updated first.
func (s *Store) ListCases(params ListParams) []*Case {
	s.mu.RLock()
	matched := make([]*Case, 0)
	for _, c := range s.cases {
		if params.GuildID != "" && c.GuildID != params.GuildID {
			continue
		}
		if params.Status != "" && c.Status != params.Status {
			continue
		}
		if params.Category != "" && c.Category != params.Category {
			continue
		}
		matched = append(matched, c)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	out := make([]*Case, len(matched))
	for i, c := range matched {
		out[i] = cloneCase(c)
	}
	s.mu.RUnlock()
	return out
}

func (s *Store) GetCase(id string) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.byID[id]
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return cloneCase(c), nil
}

func (s *Store) GetCaseForGuild(guildID, id string) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.byID[id]
	if c == nil || c.GuildID != guildID {
		return nil, ErrCaseNotFound
	}
	return cloneCase(c), nil
}

func (s *Store) TotalsFor(guildID, userID string) UserTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if totals := s.totals[totalsKey(guildID, userID)]; totals != nil {
		return *totals
	}
	return UserTotals{GuildID: guildID, UserID: userID}
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	stats := s.stats
	stats.TotalCases = len(s.cases)
	stats.OpenCases = 0
	for _, c := range s.cases {
		if c.Active() {
			stats.OpenCases++
		}
	}
	return stats
}

func (s *Store) findActiveLocked(guildID, userID string, category Category) *Case {
	for _, c := range s.cases {
		if c.GuildID == guildID && c.UserID == userID && c.Category == category && c.Active() {
			return c
		}
	}
	return nil
}

func (s *Store) findByIDLocked(guildID, caseID string) *Case {
	c := s.byID[caseID]
	if c == nil || (guildID != "" && c.GuildID != guildID) {
		return nil
	}
	return c
}

func (s *Store) findOrCreateLocked(guildID, userID, userTag string, category Category, reason string, now time.Time) (*Case, bool) {
	if c := s.findActiveLocked(guildID, userID, category); c != nil {
		if c.UserTag == "" && userTag != "" {
			c.UserTag = userTag
		}
		return c, false
	}
	return s.createCaseLocked(guildID, userID, userTag, category, reason, now), true
}

func (s *Store) createCaseLocked(guildID, userID, userTag string, category Category, reason string, now time.Time) *Case {
	c := &Case{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		UserID:    userID,
		UserTag:   userTag,
		Category:  category,
		Status:    StatusOpen,
		Metadata:  make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if reason != "" {
		c.Metadata["reason"] = reason
	}
	addParticipant(c, AuthorMember, userID, userTag)
	s.cases = append(s.cases, c)
	s.byID[c.ID] = c

	totals := s.totalsLocked(guildID, userID)
	totals.Cases++
	return c
}

func (s *Store) appendMessageLocked(c *Case, incoming IncomingMessage, now time.Time) Message {
	msg := Message{
		ID:         uuid.NewString(),
		AuthorType: incoming.AuthorType,
		AuthorID:   incoming.AuthorID,
		AuthorTag:  incoming.AuthorTag,
		Body:       incoming.Body,
		Via:        incoming.Via,
		CreatedAt:  now,
	}
	c.Messages = append(c.Messages, msg)
	trimMessages(c)
	c.LastMessageAt = now
	if incoming.AuthorID != "" {
		addParticipant(c, incoming.AuthorType, incoming.AuthorID, incoming.AuthorTag)
	}

	// Terminal cases never auto-transition; they need an explicit reopen.
	switch incoming.AuthorType {
	case AuthorMember:
		c.UnreadCount++
		if !c.Status.Terminal() {
			c.Status = StatusPendingResponse
		}
	case AuthorModerator:
		c.UnreadCount = 0
		if !c.Status.Terminal() {
			c.Status = StatusOpen
		}
	}
	return msg
}

func (s *Store) appendAuditLocked(c *Case, kind, actor, detail string, now time.Time) {
	c.AuditLog = append(c.AuditLog, AuditEntry{
		Kind:      kind,
		Actor:     actor,
		Detail:    detail,
		CreatedAt: now,
	})
	if len(c.AuditLog) > MaxAuditEntriesPerCase {
		c.AuditLog = c.AuditLog[len(c.AuditLog)-MaxAuditEntriesPerCase:]
	}
}

// maybeAssignSubjectLocked derives the subject once it is missing and a
// source exists. Once set, a subject is immutable.
func (s *Store) maybeAssignSubjectLocked(c *Case) {
	if c.Subject != "" {
		return
	}
	if topic := c.Metadata["topic"]; topic != "" {
		c.Subject = topic
		return
	}
	if reason := c.Metadata["reason"]; reason != "" {
		c.Subject = reason
		return
	}
	if len(c.Actions) > 0 {
		c.Subject = "Moderation: " + string(c.Actions[0].Type)
		return
	}
	for _, msg := range c.Messages {
		if msg.AuthorType != AuthorMember {
			continue
		}
		body := strings.TrimSpace(msg.Body)
		if body == "" {
			continue
		}
		if len(body) > 80 {
			body = body[:80]
		}
		c.Subject = body
		return
	}
	label := c.UserTag
	if label == "" {
		label = c.UserID
	}
	c.Subject = "Case for " + label
}

func (s *Store) totalsLocked(guildID, userID string) *UserTotals {
	key := totalsKey(guildID, userID)
	totals := s.totals[key]
	if totals == nil {
		totals = &UserTotals{GuildID: guildID, UserID: userID}
		s.totals[key] = totals
	}
	return totals
}

func (s *Store) bumpTotalsLocked(guildID, userID string, action ActionType, now time.Time) *UserTotals {
	totals := s.totalsLocked(guildID, userID)
	switch action {
	case ActionWarn:
		totals.Warnings++
	case ActionTimeout:
		totals.Timeouts++
	case ActionKick:
		totals.Kicks++
	case ActionBan:
		totals.Bans++
	}
	totals.LastActionAt = now
	return totals
}

// rebuildTotalsLocked recomputes a member's totals from their surviving
// cases instead of subtracting, so deletion can never leave them stale.
func (s *Store) rebuildTotalsLocked(guildID, userID string) {
	totals := UserTotals{GuildID: guildID, UserID: userID}
	for _, c := range s.cases {
		if c.GuildID != guildID || c.UserID != userID {
			continue
		}
		totals.Cases++
		for _, action := range c.Actions {
			switch action.Type {
			case ActionWarn:
				totals.Warnings++
			case ActionTimeout:
				totals.Timeouts++
			case ActionKick:
				totals.Kicks++
			case ActionBan:
				totals.Bans++
			}
			if action.CreatedAt.After(totals.LastActionAt) {
				totals.LastActionAt = action.CreatedAt
			}
		}
	}
	key := totalsKey(guildID, userID)
	if totals.Cases == 0 {
		delete(s.totals, key)
		return
	}
	s.totals[key] = &totals
}

func (s *Store) bumpStatsLocked(action ActionType, delta int) {
	switch action {
	case ActionWarn:
		s.stats.Warnings += delta
	case ActionTimeout:
		s.stats.Timeouts += delta
	case ActionKick:
		s.stats.Kicks += delta
	case ActionBan:
		s.stats.Bans += delta
	}
}

func (s *Store) saveLocked(ctx context.Context) error {
	state := &State{
		Cases: s.cases,
		Stats: s.statsLocked(),
	}
	keys := make([]string, 0, len(s.totals))
	for key := range s.totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		state.Totals = append(state.Totals, *s.totals[key])
	}

	if err := s.persister.Save(ctx, state); err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func totalsKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func addParticipant(c *Case, authorType AuthorType, id, tag string) {
	participantType := string(authorType)
	for i, existing := range c.Participants {
		if existing.Type == participantType && existing.ID == id {
			if existing.Tag == "" && tag != "" {
				c.Participants[i].Tag = tag
			}
			return
		}
	}
	c.Participants = append(c.Participants, Participant{Type: participantType, ID: id, Tag: tag})
	if len(c.Participants) > MaxParticipantsPerCase {
		c.Participants = c.Participants[len(c.Participants)-MaxParticipantsPerCase:]
	}
}

func trimActions(c *Case) {
	if len(c.Actions) > MaxActionsPerCase {
		c.Actions = c.Actions[len(c.Actions)-MaxActionsPerCase:]
	}
}

func trimMessages(c *Case) {
	if len(c.Messages) > MaxMessagesPerCase {
		c.Messages = c.Messages[len(c.Messages)-MaxMessagesPerCase:]
	}
}

func describeAction(record ActionRecord) string {
	var label string
	switch record.Type {
	case ActionWarn:
		label = "Warning issued"
	case ActionTimeout:
		label = fmt.Sprintf("Timeout applied (%d minutes)", record.DurationMinutes)
	case ActionKick:
		label = "Member kicked"
	case ActionBan:
		label = "Member banned"
	default:
		label = string(record.Type)
	}
	if record.Reason != "" {
		label += ": " + record.Reason
	}
	if record.ModeratorTag != "" {
		label += " (by " + record.ModeratorTag + ")"
	} else if record.Source != "" {
		label += " (" + record.Source + ")"
	}
	return label
}
