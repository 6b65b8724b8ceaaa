package cases

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryModeration Category = "moderation"
	CategoryTicket     Category = "ticket"
)

type Status string

const (
	StatusOpen            Status = "open"
	StatusPendingResponse Status = "pending-response"
	StatusPending         Status = "pending"
	StatusEscalated       Status = "escalated"
	StatusClosed          Status = "closed"
	StatusArchived        Status = "archived"
)

// Terminal reports whether the status ends a case's active life.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusArchived
}

// NormalizeStatus maps free-form input to a canonical status. Internal code
// only ever sees canonical values; callers receive false for unknown input.
func NormalizeStatus(value string) (Status, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	cleaned = strings.ReplaceAll(cleaned, "_", "-")
	cleaned = strings.ReplaceAll(cleaned, " ", "-")
	switch cleaned {
	case "open", "reopened":
		return StatusOpen, true
	case "pending-response", "pendingresponse", "awaiting-response":
		return StatusPendingResponse, true
	case "pending", "in-progress":
		return StatusPending, true
	case "escalated":
		return StatusEscalated, true
	case "closed", "resolved":
		return StatusClosed, true
	case "archived":
		return StatusArchived, true
	default:
		return "", false
	}
}

type ActionType string

const (
	ActionWarn    ActionType = "warn"
	ActionTimeout ActionType = "timeout"
	ActionKick    ActionType = "kick"
	ActionBan     ActionType = "ban"
)

func NormalizeAction(value string) (ActionType, bool) {
	switch ActionType(strings.ToLower(strings.TrimSpace(value))) {
	case ActionWarn:
		return ActionWarn, true
	case ActionTimeout:
		return ActionTimeout, true
	case ActionKick:
		return ActionKick, true
	case ActionBan:
		return ActionBan, true
	default:
		return "", false
	}
}

type AuthorType string

const (
	AuthorMember    AuthorType = "member"
	AuthorModerator AuthorType = "moderator"
	AuthorSystem    AuthorType = "system"
	AuthorBot       AuthorType = "bot"
)

// ActionRecord is one enforcement event inside a case.
type ActionRecord struct {
	ID              string            `json:"id"`
	Type            ActionType        `json:"type"`
	Reason          string            `json:"reason"`
	DurationMinutes int               `json:"durationMinutes,omitempty"`
	ModeratorID     string            `json:"moderatorId,omitempty"`
	ModeratorTag    string            `json:"moderatorTag,omitempty"`
	Source          string            `json:"source"`
	CreatedAt       time.Time         `json:"createdAt"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type Message struct {
	ID         string     `json:"id"`
	AuthorType AuthorType `json:"authorType"`
	AuthorID   string     `json:"authorId,omitempty"`
	AuthorTag  string     `json:"authorTag,omitempty"`
	Body       string     `json:"body"`
	Via        string     `json:"via,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type AuditEntry struct {
	Kind      string    `json:"kind"`
	Actor     string    `json:"actor,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Participant struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Tag  string `json:"tag,omitempty"`
}

type SLA struct {
	DueAt       time.Time  `json:"dueAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Case is the unit of ongoing moderation or support interaction.
type Case struct {
	ID            string            `json:"id"`
	GuildID       string            `json:"guildId"`
	UserID        string            `json:"userId"`
	UserTag       string            `json:"userTag,omitempty"`
	Category      Category          `json:"category"`
	Status        Status            `json:"status"`
	Subject       string            `json:"subject,omitempty"`
	TicketType    string            `json:"ticketType,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Assignee      string            `json:"assignee,omitempty"`
	UnreadCount   int               `json:"unreadCount"`
	SLA           *SLA              `json:"sla,omitempty"`
	Actions       []ActionRecord    `json:"actions"`
	Messages      []Message         `json:"messages"`
	AuditLog      []AuditEntry      `json:"auditLog"`
	Participants  []Participant     `json:"participants"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	LastMessageAt time.Time         `json:"lastMessageAt,omitempty"`
}

// Active reports whether the case counts against the one-active-case rule.
func (c *Case) Active() bool {
	return !c.Status.Terminal()
}

// UserTotals aggregates enforcement across all of a member's cases in one
// guild. Rebuilt from surviving cases when a case is deleted.
type UserTotals struct {
	GuildID      string    `json:"guildId"`
	UserID       string    `json:"userId"`
	Warnings     int       `json:"warnings"`
	Timeouts     int       `json:"timeouts"`
	Kicks        int       `json:"kicks"`
	Bans         int       `json:"bans"`
	Cases        int       `json:"cases"`
	LastActionAt time.Time `json:"lastActionAt,omitempty"`
}

// Stats are the global per-action counters plus case tallies.
type Stats struct {
	Warnings   int `json:"warnings"`
	Timeouts   int `json:"timeouts"`
	Kicks      int `json:"kicks"`
	Bans       int `json:"bans"`
	OpenCases  int `json:"openCases"`
	TotalCases int `json:"totalCases"`
}

// State is the full persisted graph. It round-trips through JSON without
// loss; bounded collections are trimmed on write, never on read.
type State struct {
	Cases  []*Case      `json:"cases"`
	Totals []UserTotals `json:"totals"`
	Stats  Stats        `json:"stats"`
}

const (
	MaxActionsPerCase      = 100
	MaxMessagesPerCase     = 400
	MaxAuditEntriesPerCase = 400
	MaxParticipantsPerCase = 25
)

func cloneCase(c *Case) *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Actions = append([]ActionRecord(nil), c.Actions...)
	out.Messages = append([]Message(nil), c.Messages...)
	out.AuditLog = append([]AuditEntry(nil), c.AuditLog...)
	out.Participants = append([]Participant(nil), c.Participants...)
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.SLA != nil {
		sla := *c.SLA
		if c.SLA.CompletedAt != nil {
			completed := *c.SLA.CompletedAt
			sla.CompletedAt = &completed
		}
		out.SLA = &sla
	}
	return &out
}
