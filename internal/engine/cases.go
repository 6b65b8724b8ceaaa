package engine

import (
	"context"
	"time"

	"warden/internal/cases"

	"go.uber.org/zap"
)

// Case operations the dashboard and slash commands go through. They delegate
// to the store; the engine only adds the DM side effects the store must not
// know about.

func (e *Engine) OpenMemberCase(ctx context.Context, params cases.EnsureParams) (cases.EnsureResult, error) {
	return e.store.EnsureMemberCase(ctx, params)
}

// PostModeratorMessage stores a moderator reply and forwards a copy to the
// member's DMs. Delivery failures do not fail the post.
func (e *Engine) PostModeratorMessage(ctx context.Context, guildID, caseID, moderatorID, moderatorTag, body string) (*cases.Message, error) {
	msg, err := e.store.AppendCaseMessage(ctx, cases.AppendParams{
		GuildID:    guildID,
		CaseID:     caseID,
		AuthorType: cases.AuthorModerator,
		AuthorID:   moderatorID,
		AuthorTag:  moderatorTag,
		Body:       body,
		Via:        SourceDashboard,
	})
	if err != nil {
		return nil, err
	}
	if c, getErr := e.store.GetCaseForGuild(guildID, caseID); getErr == nil {
		if dmErr := e.platform.SendDM(ctx, c.UserID, body); dmErr != nil {
			e.logger.Debug("case reply dm failed",
				zap.String("case_id", caseID),
				zap.Error(dmErr))
		}
	}
	return msg, nil
}

func (e *Engine) PostMemberMessage(ctx context.Context, guildID, caseID, memberID, memberTag, body, via string) (*cases.Message, error) {
	return e.store.AppendCaseMessage(ctx, cases.AppendParams{
		GuildID:    guildID,
		CaseID:     caseID,
		AuthorType: cases.AuthorMember,
		AuthorID:   memberID,
		AuthorTag:  memberTag,
		Body:       body,
		Via:        via,
	})
}

func (e *Engine) SetCaseStatus(ctx context.Context, guildID, caseID, status, actor, note string) (*cases.Case, error) {
	return e.store.UpdateCaseStatus(ctx, cases.StatusParams{
		GuildID: guildID,
		CaseID:  caseID,
		Status:  status,
		Actor:   actor,
		Note:    note,
	})
}

func (e *Engine) SetCaseAssignee(ctx context.Context, guildID, caseID, assignee, actor string) (*cases.Case, error) {
	return e.store.SetAssignee(ctx, guildID, caseID, assignee, actor)
}

func (e *Engine) SetCaseSLA(ctx context.Context, guildID, caseID string, dueAt time.Time, completed bool, actor string) (*cases.Case, error) {
	return e.store.SetSLA(ctx, guildID, caseID, dueAt, completed, actor)
}

func (e *Engine) DeleteCase(ctx context.Context, guildID, caseID, actor string) error {
	return e.store.DeleteCase(ctx, guildID, caseID, actor)
}

func (e *Engine) ListCasesForGuild(guildID string, status cases.Status, category cases.Category, limit int) []*cases.Case {
	return e.store.ListCases(cases.ListParams{
		GuildID:  guildID,
		Status:   status,
		Category: category,
		Limit:    limit,
	})
}

func (e *Engine) GetCaseDetails(guildID, caseID string) (*cases.Case, error) {
	return e.store.GetCaseForGuild(guildID, caseID)
}

func (e *Engine) TotalsFor(guildID, userID string) cases.UserTotals {
	return e.store.TotalsFor(guildID, userID)
}

func (e *Engine) Stats() cases.Stats {
	return e.store.Stats()
}

func (e *Engine) Subscribe(fn func(cases.Event)) func() {
	return e.store.Subscribe(fn)
}
