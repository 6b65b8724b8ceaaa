package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"warden/internal/cases"
	"warden/internal/config"
	"warden/internal/escalation"
	"warden/internal/modules/spam"
	"warden/internal/modules/violation"

	"go.uber.org/zap"
)

var (
	// ErrMemberNotResolvable means the platform cannot locate the member or
	// guild the operation targets.
	ErrMemberNotResolvable = errors.New("engine: member not resolvable")
	// ErrNotModeratable means role hierarchy or permissions forbid acting on
	// the member.
	ErrNotModeratable = errors.New("engine: member not moderatable")
)

// Action record sources besides automod rule names.
const (
	SourceSpamDetector = "spam-detector"
	SourceDashboard    = "dashboard"
)

// Member is what the platform can tell us about a guild member. Moderator is
// true for Administrator/ManageMessages/ManageGuild-equivalent authority.
type Member struct {
	ID        string
	Tag       string
	Roles     []string
	Moderator bool
}

// PlatformActions is the enforcement port. Implementations must return
// ErrMemberNotResolvable / ErrNotModeratable (wrapped is fine) so callers
// can classify failures.
type PlatformActions interface {
	ResolveMember(ctx context.Context, guildID, userID string) (Member, error)
	Timeout(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	SendDM(ctx context.Context, userID, content string) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Engine wires detection to enforcement and bookkeeping. Platform calls come
// before case recording, so a failed penalty never leaves a misleading audit
// trail; DM delivery failures are logged and swallowed.
type Engine struct {
	watcher  *config.Watcher
	store    *cases.Store
	detector *spam.Detector
	platform PlatformActions
	logger   *zap.Logger
	clock    Clock
}

func New(watcher *config.Watcher, store *cases.Store, detector *spam.Detector, platform PlatformActions, logger *zap.Logger) *Engine {
	e := &Engine{
		watcher:  watcher,
		store:    store,
		detector: detector,
		platform: platform,
		logger:   logger,
		clock:    realClock{},
	}
	watcher.OnChange(func(cfg config.Config) {
		detector.SetConfig(cfg.Moderation.Spam)
	})
	return e
}

func (e *Engine) WithClock(clock Clock) {
	e.clock = clock
}

type InboundMessage struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorTag   string
	Content     string
	Attachments int
	Mentions    int
}

type EnforcementResult struct {
	ActionTaken cases.ActionType
	Violations  []string
}

var (
	linkPattern  = regexp.MustCompile(`https?://[^\s]+`)
	emojiPattern = regexp.MustCompile(`<a?:\w+:\d+>|[\x{1F000}-\x{1FAFF}]|[\x{2600}-\x{27BF}]`)
)

// HandleMessage runs detection on one inbound chat message and applies the
// resulting penalty. Exempt members skip detection entirely.
func (e *Engine) HandleMessage(ctx context.Context, msg InboundMessage) (EnforcementResult, error) {
	cfg := e.watcher.Current().Moderation

	if e.bypassed(ctx, cfg.Bypass, msg) {
		return EnforcementResult{}, nil
	}

	if v := violation.Detect(msg.Content, msg.Attachments, cfg.Filters); v != nil {
		err := e.applyAction(ctx, actionRequest{
			GuildID:  msg.GuildID,
			UserID:   msg.AuthorID,
			UserTag:  msg.AuthorTag,
			Action:   cases.ActionWarn,
			Reason:   fmt.Sprintf("automod: %s (%s)", v.Rule, v.Detail),
			Source:   v.Rule,
			Metadata: map[string]string{"rule": v.Rule, "detail": v.Detail},
		})
		return EnforcementResult{ActionTaken: cases.ActionWarn, Violations: []string{v.Rule}}, err
	}

	signals := spam.Signals{
		Messages:    1,
		Mentions:    msg.Mentions,
		Links:       len(linkPattern.FindAllString(msg.Content, -1)),
		Emojis:      len(emojiPattern.FindAllString(msg.Content, -1)),
		Attachments: msg.Attachments,
	}
	if verdict := e.detector.Observe(msg.AuthorID, signals, e.clock.Now()); verdict != nil {
		names := make([]string, 0, len(verdict.Exceeded))
		for _, exceeded := range verdict.Exceeded {
			names = append(names, string(exceeded.Signal))
		}
		err := e.applyAction(ctx, actionRequest{
			GuildID:  msg.GuildID,
			UserID:   msg.AuthorID,
			UserTag:  msg.AuthorTag,
			Action:   cases.ActionWarn,
			Reason:   describeVerdict(verdict),
			Source:   SourceSpamDetector,
			Metadata: map[string]string{"signals": strings.Join(names, ",")},
		})
		return EnforcementResult{ActionTaken: cases.ActionWarn, Violations: names}, err
	}

	return EnforcementResult{}, nil
}

func (e *Engine) bypassed(ctx context.Context, bypass config.Bypass, msg InboundMessage) bool {
	for _, channelID := range bypass.Channels {
		if channelID == msg.ChannelID {
			return true
		}
	}
	for _, userID := range bypass.Users {
		if userID == msg.AuthorID {
			return true
		}
	}

	member, err := e.platform.ResolveMember(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		e.logger.Debug("member resolution failed during bypass check", zap.Error(err))
		return false
	}
	if member.Moderator {
		return true
	}
	for _, roleID := range bypass.Roles {
		for _, memberRole := range member.Roles {
			if roleID == memberRole {
				return true
			}
		}
	}
	return false
}

// Warn records a moderator warning. Warnings have no platform-side effect.
func (e *Engine) Warn(ctx context.Context, guildID, userID, moderatorID, moderatorTag, reason string) error {
	return e.moderatorAction(ctx, guildID, userID, moderatorID, moderatorTag, cases.ActionWarn, reason, 0)
}

func (e *Engine) Timeout(ctx context.Context, guildID, userID, moderatorID, moderatorTag, reason string, durationMinutes int) error {
	if durationMinutes <= 0 {
		durationMinutes = e.watcher.Current().Moderation.Escalation.AutoTimeoutMinutes
	}
	return e.moderatorAction(ctx, guildID, userID, moderatorID, moderatorTag, cases.ActionTimeout, reason, durationMinutes)
}

func (e *Engine) Kick(ctx context.Context, guildID, userID, moderatorID, moderatorTag, reason string) error {
	return e.moderatorAction(ctx, guildID, userID, moderatorID, moderatorTag, cases.ActionKick, reason, 0)
}

func (e *Engine) Ban(ctx context.Context, guildID, userID, moderatorID, moderatorTag, reason string) error {
	return e.moderatorAction(ctx, guildID, userID, moderatorID, moderatorTag, cases.ActionBan, reason, 0)
}

func (e *Engine) moderatorAction(ctx context.Context, guildID, userID, moderatorID, moderatorTag string, action cases.ActionType, reason string, durationMinutes int) error {
	member, err := e.platform.ResolveMember(ctx, guildID, userID)
	if err != nil {
		return err
	}
	return e.applyAction(ctx, actionRequest{
		GuildID:         guildID,
		UserID:          userID,
		UserTag:         member.Tag,
		Action:          action,
		Reason:          reason,
		DurationMinutes: durationMinutes,
		ModeratorID:     moderatorID,
		ModeratorTag:    moderatorTag,
		Source:          SourceDashboard,
	})
}

type actionRequest struct {
	GuildID         string
	UserID          string
	UserTag         string
	Action          cases.ActionType
	Reason          string
	DurationMinutes int
	ModeratorID     string
	ModeratorTag    string
	Source          string
	Metadata        map[string]string
}

// applyAction enforces, records, notifies, then walks the escalation ladder.
// The loop terminates because the transition table ends at ban; dashboard
// actions are recorded but never evaluated for escalation.
func (e *Engine) applyAction(ctx context.Context, req actionRequest) error {
	cfg := e.watcher.Current().Moderation
	current := req

	for {
		if err := e.enforce(ctx, current); err != nil {
			return err
		}
		result, err := e.store.RecordCase(ctx, cases.RecordEntry{
			GuildID:         current.GuildID,
			UserID:          current.UserID,
			UserTag:         current.UserTag,
			Action:          current.Action,
			Reason:          current.Reason,
			DurationMinutes: current.DurationMinutes,
			ModeratorID:     current.ModeratorID,
			ModeratorTag:    current.ModeratorTag,
			Source:          current.Source,
			Metadata:        current.Metadata,
		})
		if err != nil {
			return err
		}
		e.notifyMember(ctx, current, cfg.DM)

		if current.Source == SourceDashboard {
			return nil
		}
		decision := escalation.Evaluate(current.Action, result.Totals, cfg.Escalation)
		if decision == nil {
			return nil
		}

		if _, err := e.store.UpdateCaseStatus(ctx, cases.StatusParams{
			GuildID: current.GuildID,
			CaseID:  result.Case.ID,
			Status:  string(cases.StatusEscalated),
			Actor:   escalation.Source,
			Note:    decision.Reason,
		}); err != nil {
			e.logger.Warn("escalation status update failed", zap.Error(err))
		}

		current = actionRequest{
			GuildID:         current.GuildID,
			UserID:          current.UserID,
			UserTag:         current.UserTag,
			Action:          decision.Action,
			Reason:          decision.Reason,
			DurationMinutes: decision.DurationMinutes,
			Source:          escalation.Source,
		}
	}
}

// enforce performs the platform-side penalty. It runs before recording so a
// refused action leaves no trace in the case store.
func (e *Engine) enforce(ctx context.Context, req actionRequest) error {
	switch req.Action {
	case cases.ActionWarn:
		return nil
	case cases.ActionTimeout:
		minutes := req.DurationMinutes
		if minutes <= 0 {
			minutes = e.watcher.Current().Moderation.Escalation.AutoTimeoutMinutes
		}
		if minutes <= 0 {
			minutes = 10
		}
		return e.platform.Timeout(ctx, req.GuildID, req.UserID, time.Duration(minutes)*time.Minute, req.Reason)
	case cases.ActionKick:
		return e.platform.Kick(ctx, req.GuildID, req.UserID, req.Reason)
	case cases.ActionBan:
		return e.platform.Ban(ctx, req.GuildID, req.UserID, req.Reason)
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}
}

func (e *Engine) notifyMember(ctx context.Context, req actionRequest, templates config.DMTemplates) {
	var template string
	switch req.Action {
	case cases.ActionWarn:
		template = templates.Warn
	case cases.ActionTimeout:
		template = templates.Timeout
	case cases.ActionKick:
		template = templates.Kick
	case cases.ActionBan:
		template = templates.Ban
	}
	if template == "" {
		return
	}
	content := strings.ReplaceAll(template, "{reason}", req.Reason)
	content = strings.ReplaceAll(content, "{duration}", strconv.Itoa(req.DurationMinutes))
	if err := e.platform.SendDM(ctx, req.UserID, content); err != nil {
		e.logger.Debug("dm notification failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
	}
}

func describeVerdict(verdict *spam.Verdict) string {
	parts := make([]string, 0, len(verdict.Exceeded))
	for _, exceeded := range verdict.Exceeded {
		parts = append(parts, fmt.Sprintf("%s %d/%d", exceeded.Signal, exceeded.Count, exceeded.Limit))
	}
	if verdict.Legacy {
		return "message rate exceeded: " + strings.Join(parts, ", ")
	}
	return "burst detected: " + strings.Join(parts, ", ")
}
