package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"warden/internal/cases"
	"warden/internal/config"
	"warden/internal/escalation"
	"warden/internal/modules/spam"

	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type penalty struct {
	guildID string
	userID  string
	reason  string
}

type fakePlatform struct {
	mu         sync.Mutex
	members    map[string]Member
	resolveErr error
	timeoutErr error
	kickErr    error
	banErr     error
	dmErr      error

	timeouts []penalty
	kicks    []penalty
	bans     []penalty
	dms      []string
}

func (p *fakePlatform) ResolveMember(_ context.Context, guildID, userID string) (Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolveErr != nil {
		return Member{}, p.resolveErr
	}
	if member, ok := p.members[userID]; ok {
		return member, nil
	}
	return Member{ID: userID, Tag: userID + "#0001"}, nil
}

func (p *fakePlatform) Timeout(_ context.Context, guildID, userID string, _ time.Duration, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timeoutErr != nil {
		return p.timeoutErr
	}
	p.timeouts = append(p.timeouts, penalty{guildID, userID, reason})
	return nil
}

func (p *fakePlatform) Kick(_ context.Context, guildID, userID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.kickErr != nil {
		return p.kickErr
	}
	p.kicks = append(p.kicks, penalty{guildID, userID, reason})
	return nil
}

func (p *fakePlatform) Ban(_ context.Context, guildID, userID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.banErr != nil {
		return p.banErr
	}
	p.bans = append(p.bans, penalty{guildID, userID, reason})
	return nil
}

func (p *fakePlatform) SendDM(_ context.Context, userID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dmErr != nil {
		return p.dmErr
	}
	p.dms = append(p.dms, content)
	return nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Moderation.Filters.Keywords = []string{"free nitro"}
	cfg.Moderation.Spam.Enabled = false
	cfg.Moderation.Escalation = config.Escalation{WarnThreshold: 3, AutoTimeoutMinutes: 10}
	return cfg
}

func newTestEngine(t *testing.T, cfg config.Config, platform *fakePlatform) (*Engine, *cases.Store) {
	t.Helper()
	store, err := cases.New(context.Background(), cases.NewMemoryPersister(), zap.NewNop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	watcher := config.NewWatcher(cfg)
	e := New(watcher, store, spam.New(cfg.Moderation.Spam), platform, zap.NewNop())
	e.WithClock(&fakeClock{now: time.Unix(1700000000, 0)})
	return e, store
}

func TestThirdWarningEscalatesIntoTimeout(t *testing.T) {
	platform := &fakePlatform{}
	e, store := newTestEngine(t, testConfig(), platform)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := e.HandleMessage(ctx, InboundMessage{
			GuildID:   "g1",
			ChannelID: "c1",
			AuthorID:  "u1",
			AuthorTag: "u1#0001",
			Content:   fmt.Sprintf("get free nitro here %d", i),
		})
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if result.ActionTaken != cases.ActionWarn {
			t.Fatalf("message %d: expected warn, got %q", i, result.ActionTaken)
		}
	}

	if len(platform.timeouts) != 1 {
		t.Fatalf("expected exactly one platform timeout, got %d", len(platform.timeouts))
	}
	totals := store.TotalsFor("g1", "u1")
	if totals.Warnings != 3 || totals.Timeouts != 1 {
		t.Fatalf("expected totals 3 warnings / 1 timeout, got %+v", totals)
	}

	listed := store.ListCases(cases.ListParams{GuildID: "g1"})
	if len(listed) != 1 {
		t.Fatalf("expected one case, got %d", len(listed))
	}
	c := listed[0]
	if c.Status != cases.StatusEscalated {
		t.Fatalf("expected escalated case, got %q", c.Status)
	}
	last := c.Actions[len(c.Actions)-1]
	if last.Type != cases.ActionTimeout || last.Source != escalation.Source {
		t.Fatalf("expected auto-escalation timeout record, got %+v", last)
	}
	if last.DurationMinutes != 10 {
		t.Fatalf("expected configured auto timeout duration, got %d", last.DurationMinutes)
	}
}

func TestDashboardActionsDoNotEscalate(t *testing.T) {
	platform := &fakePlatform{}
	e, store := newTestEngine(t, testConfig(), platform)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := e.Warn(ctx, "g1", "u1", "mod1", "mod#0001", "manual warning"); err != nil {
			t.Fatalf("warn %d: %v", i, err)
		}
	}

	if len(platform.timeouts) != 0 {
		t.Fatalf("moderator warnings must not auto-escalate, got %d timeouts", len(platform.timeouts))
	}
	totals := store.TotalsFor("g1", "u1")
	if totals.Warnings != 3 || totals.Timeouts != 0 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestEnforcementFailureLeavesNoRecord(t *testing.T) {
	platform := &fakePlatform{banErr: ErrNotModeratable}
	e, store := newTestEngine(t, testConfig(), platform)
	ctx := context.Background()

	err := e.Ban(ctx, "g1", "u1", "mod1", "mod#0001", "raid account")
	if !errors.Is(err, ErrNotModeratable) {
		t.Fatalf("expected ErrNotModeratable, got %v", err)
	}
	if listed := store.ListCases(cases.ListParams{GuildID: "g1"}); len(listed) != 0 {
		t.Fatalf("refused ban must not be recorded, got %d cases", len(listed))
	}
	if totals := store.TotalsFor("g1", "u1"); totals.Bans != 0 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestUnresolvableMemberBlocksModeratorAction(t *testing.T) {
	platform := &fakePlatform{resolveErr: ErrMemberNotResolvable}
	e, store := newTestEngine(t, testConfig(), platform)

	err := e.Kick(context.Background(), "g1", "ghost", "mod1", "mod#0001", "left already")
	if !errors.Is(err, ErrMemberNotResolvable) {
		t.Fatalf("expected ErrMemberNotResolvable, got %v", err)
	}
	if listed := store.ListCases(cases.ListParams{GuildID: "g1"}); len(listed) != 0 {
		t.Fatalf("expected no cases, got %d", len(listed))
	}
}

func TestDMFailureDoesNotFailTheAction(t *testing.T) {
	platform := &fakePlatform{dmErr: errors.New("cannot DM this user")}
	e, store := newTestEngine(t, testConfig(), platform)

	if err := e.Warn(context.Background(), "g1", "u1", "mod1", "mod#0001", "be nice"); err != nil {
		t.Fatalf("warn must succeed despite DM failure: %v", err)
	}
	if totals := store.TotalsFor("g1", "u1"); totals.Warnings != 1 {
		t.Fatalf("expected recorded warning, got %+v", totals)
	}
}

func TestModeratorsBypassDetection(t *testing.T) {
	platform := &fakePlatform{members: map[string]Member{
		"mod1": {ID: "mod1", Tag: "mod#0001", Moderator: true},
	}}
	e, store := newTestEngine(t, testConfig(), platform)

	result, err := e.HandleMessage(context.Background(), InboundMessage{
		GuildID:   "g1",
		ChannelID: "c1",
		AuthorID:  "mod1",
		AuthorTag: "mod#0001",
		Content:   "heads up, a scam is going around offering free nitro",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.ActionTaken != "" {
		t.Fatalf("moderator must be exempt, got %q", result.ActionTaken)
	}
	if listed := store.ListCases(cases.ListParams{GuildID: "g1"}); len(listed) != 0 {
		t.Fatalf("expected no cases, got %d", len(listed))
	}
}

func TestBypassRolesAndChannels(t *testing.T) {
	platform := &fakePlatform{members: map[string]Member{
		"helper": {ID: "helper", Tag: "helper#0001", Roles: []string{"r-staff"}},
	}}
	cfg := testConfig()
	cfg.Moderation.Bypass.Roles = []string{"r-staff"}
	cfg.Moderation.Bypass.Channels = []string{"c-logs"}
	e, store := newTestEngine(t, cfg, platform)
	ctx := context.Background()

	if result, _ := e.HandleMessage(ctx, InboundMessage{
		GuildID: "g1", ChannelID: "c1", AuthorID: "helper", AuthorTag: "helper#0001",
		Content: "free nitro",
	}); result.ActionTaken != "" {
		t.Fatalf("role bypass failed: %+v", result)
	}
	if result, _ := e.HandleMessage(ctx, InboundMessage{
		GuildID: "g1", ChannelID: "c-logs", AuthorID: "u9", AuthorTag: "u9#0001",
		Content: "free nitro",
	}); result.ActionTaken != "" {
		t.Fatalf("channel bypass failed: %+v", result)
	}
	if listed := store.ListCases(cases.ListParams{GuildID: "g1"}); len(listed) != 0 {
		t.Fatalf("expected no cases, got %d", len(listed))
	}
}

func TestSpamBurstWarnsWithDetectorSource(t *testing.T) {
	platform := &fakePlatform{}
	cfg := testConfig()
	cfg.Moderation.Filters.Keywords = nil
	cfg.Moderation.Spam = config.SpamLimits{
		Enabled:  true,
		WindowMs: 10000,
		Messages: 2,
	}
	cfg.Moderation.Escalation = config.Escalation{}
	e, store := newTestEngine(t, cfg, platform)
	ctx := context.Background()

	var tripped EnforcementResult
	for i := 0; i < 3; i++ {
		result, err := e.HandleMessage(ctx, InboundMessage{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1", AuthorTag: "u1#0001",
			Content: "hey",
		})
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if result.ActionTaken != "" {
			tripped = result
		}
	}
	if tripped.ActionTaken != cases.ActionWarn {
		t.Fatalf("expected a spam warning, got %+v", tripped)
	}
	if len(tripped.Violations) != 1 || tripped.Violations[0] != string(spam.SignalMessages) {
		t.Fatalf("unexpected violations %v", tripped.Violations)
	}

	listed := store.ListCases(cases.ListParams{GuildID: "g1"})
	if len(listed) != 1 {
		t.Fatalf("expected one case, got %d", len(listed))
	}
	action := listed[0].Actions[0]
	if action.Source != SourceSpamDetector {
		t.Fatalf("expected spam-detector source, got %q", action.Source)
	}
}

func TestConfigReloadReachesSpamDetector(t *testing.T) {
	platform := &fakePlatform{}
	cfg := testConfig()
	cfg.Moderation.Filters.Keywords = nil
	cfg.Moderation.Spam = config.SpamLimits{Enabled: false}
	cfg.Moderation.Escalation = config.Escalation{}

	store, err := cases.New(context.Background(), cases.NewMemoryPersister(), zap.NewNop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	watcher := config.NewWatcher(cfg)
	detector := spam.New(cfg.Moderation.Spam)
	e := New(watcher, store, detector, platform, zap.NewNop())
	e.WithClock(&fakeClock{now: time.Unix(1700000000, 0)})
	ctx := context.Background()

	next := cfg
	next.Moderation.Spam = config.SpamLimits{Enabled: true, WindowMs: 10000, Messages: 1}
	watcher.Set(next)

	var tripped bool
	for i := 0; i < 2; i++ {
		result, err := e.HandleMessage(ctx, InboundMessage{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1", AuthorTag: "u1#0001",
			Content: "hello",
		})
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if result.ActionTaken == cases.ActionWarn {
			tripped = true
		}
	}
	if !tripped {
		t.Fatalf("reloaded spam limits were not applied")
	}
}

func TestModeratorReplyIsForwardedToMember(t *testing.T) {
	platform := &fakePlatform{}
	e, _ := newTestEngine(t, testConfig(), platform)
	ctx := context.Background()

	opened, err := e.OpenMemberCase(ctx, cases.EnsureParams{
		GuildID:  "g1",
		UserID:   "u1",
		UserTag:  "u1#0001",
		Category: cases.CategoryTicket,
		InitialMessage: &cases.IncomingMessage{
			AuthorType: cases.AuthorMember,
			AuthorID:   "u1",
			AuthorTag:  "u1#0001",
			Body:       "I think my warning was a mistake",
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := e.PostModeratorMessage(ctx, "g1", opened.Case.ID, "mod1", "mod#0001", "Looking into it now."); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(platform.dms) != 1 || platform.dms[0] != "Looking into it now." {
		t.Fatalf("expected the reply forwarded by DM, got %v", platform.dms)
	}

	c, err := e.GetCaseDetails("g1", opened.Case.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != cases.StatusOpen || c.UnreadCount != 0 {
		t.Fatalf("expected moderator reply to open the case and clear unread, got %q/%d", c.Status, c.UnreadCount)
	}
}
