package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/ward-monitor/internal/api/telegram"
	"github.com/oshokin/ward-monitor/internal/domain/ward"
	"github.com/oshokin/ward-monitor/internal/logger"
)

// BotAPI is the subset of the chat bot API the channel needs.
type BotAPI interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
}

// Actuators is the part of the actuator controller commands can drive.
type Actuators interface {
	OpenCurtain(ctx context.Context)
	CloseCurtain(ctx context.Context)
	OpenDoor(ctx context.Context)
	CloseDoor(ctx context.Context)
	SetLamp(ctx context.Context, on bool)
	StopBuzzer(ctx context.Context)
}

// OffsetSaver persists the processed offset between restarts.
type OffsetSaver interface {
	Save(ctx context.Context, offset int64) error
}

// Handler runs one command and returns the reply text.
type Handler func(ctx context.Context) string

// ErrNoOffset is returned by NewChannel when no offset pointer is given.
var ErrNoOffset = errors.New("offset pointer is required")

// Channel is the command and alert channel.
type Channel struct {
	bot         BotAPI
	actuators   Actuators
	snapshot    func() ward.Snapshot
	offset      *int64
	alertChatID int64
	allowed     map[int64]struct{}
	pollTimeout time.Duration
	saver       OffsetSaver
	handlers    map[string]Handler
	room        string
}

// Option configures a Channel.
type Option func(*Channel)

// WithAllowedChats restricts commands to the given chats. Empty means any chat.
func WithAllowedChats(ids ...int64) Option {
	return func(c *Channel) {
		for _, id := range ids {
			c.allowed[id] = struct{}{}
		}
	}
}

// WithPollTimeout sets the long-poll timeout sent to the bot API.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d >= 0 {
			c.pollTimeout = d
		}
	}
}

// WithOffsetSaver checkpoints the offset after every poll that advanced it.
func WithOffsetSaver(s OffsetSaver) Option {
	return func(c *Channel) {
		c.saver = s
	}
}

// WithRoom sets the room label used in replies.
func WithRoom(room string) Option {
	return func(c *Channel) {
		if room != "" {
			c.room = room
		}
	}
}

// NewChannel creates a channel. offset points into the ward state and is
// the only copy of the processed offset; snapshot returns the current ward
// state for status replies.
func NewChannel(
	bot BotAPI,
	actuators Actuators,
	snapshot func() ward.Snapshot,
	offset *int64,
	alertChatID int64,
	opts ...Option,
) (*Channel, error) {
	if offset == nil {
		return nil, ErrNoOffset
	}

	c := &Channel{
		bot:         bot,
		actuators:   actuators,
		snapshot:    snapshot,
		offset:      offset,
		alertChatID: alertChatID,
		allowed:     make(map[int64]struct{}),
		room:        "Habitación Paciente",
	}

	for _, opt := range opts {
		opt(c)
	}

	c.handlers = c.commandTable()

	return c, nil
}

// Offset returns the highest processed update id.
func (c *Channel) Offset() int64 {
	return *c.offset
}

// Poll fetches pending updates once and dispatches them in received order.
// It returns the number of dispatched commands. On a failed request the
// offset is left unchanged.
func (c *Channel) Poll(ctx context.Context) (int, error) {
	ctx = logger.WithName(ctx, "commands")

	requested := *c.offset + 1

	updates, err := c.bot.GetUpdates(ctx, requested, c.pollTimeout)
	if err != nil {
		return 0, fmt.Errorf("get updates: %w", err)
	}

	before := *c.offset
	seen := make(map[int64]struct{}, len(updates))
	dispatched := 0

	for _, u := range updates {
		// Anything below the requested threshold was handled by an earlier
		// poll; a repeat within this batch was handled a moment ago.
		if _, dup := seen[u.UpdateID]; dup || u.UpdateID < requested {
			logger.DebugKV(ctx, "Skipping already processed update", "update_id", u.UpdateID)
			continue
		}

		seen[u.UpdateID] = struct{}{}

		if u.UpdateID > *c.offset {
			*c.offset = u.UpdateID
		}

		if c.handle(ctx, u) {
			dispatched++
		}
	}

	if *c.offset != before {
		c.checkpoint(ctx)
	}

	return dispatched, nil
}

// Notify sends text to the alert chat.
func (c *Channel) Notify(ctx context.Context, text string) error {
	return c.Send(ctx, c.alertChatID, text)
}

// Send sends HTML text to a chat.
func (c *Channel) Send(ctx context.Context, chatID int64, text string) error {
	err := c.bot.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telegram.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}

	return nil
}

// VerifyBot checks the token and returns the bot's first name.
func (c *Channel) VerifyBot(ctx context.Context) (string, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("verify bot: %w", err)
	}

	return me.FirstName, nil
}

// handle dispatches one update and reports whether a command ran.
func (c *Channel) handle(ctx context.Context, u telegram.Update) bool {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		logger.DebugKV(ctx, "Ignoring update without text", "update_id", u.UpdateID)
		return false
	}

	var (
		chatID = u.Message.Chat.ID
		text   = strings.TrimSpace(u.Message.Text)
	)

	logger.InfoKV(ctx, "Command received", "update_id", u.UpdateID, "chat_id", chatID, "text", text)

	if !c.authorized(chatID) {
		logger.WarnKV(ctx, "Command from unauthorized chat", "chat_id", chatID)
		c.reply(ctx, chatID, replyUnauthorized)

		return false
	}

	handler, ok := c.handlers[text]
	if !ok {
		c.reply(ctx, chatID, replyUnknown)
		return true
	}

	c.reply(ctx, chatID, handler(ctx))

	return true
}

func (c *Channel) authorized(chatID int64) bool {
	if len(c.allowed) == 0 {
		return true
	}

	_, ok := c.allowed[chatID]

	return ok
}

func (c *Channel) reply(ctx context.Context, chatID int64, text string) {
	if err := c.Send(ctx, chatID, text); err != nil {
		logger.ErrorKV(ctx, "Reply failed", "chat_id", chatID, "error", err)
	}
}

func (c *Channel) checkpoint(ctx context.Context) {
	if c.saver == nil {
		return
	}

	if err := c.saver.Save(ctx, *c.offset); err != nil {
		logger.ErrorKV(ctx, "Save offset checkpoint failed", "offset", *c.offset, "error", err)
	}
}
