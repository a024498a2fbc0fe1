package monitor

import (
	"context"
	"fmt"

	"github.com/oshokin/ward-monitor/internal/config"
	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/service/command"
)

// VerifyBot loads the settings and checks the bot token, returning the bot name.
func VerifyBot(ctx context.Context, opts *Options) (string, error) {
	ctx = logger.WithName(ctx, "verify-bot")

	channel, err := alertChannel(opts)
	if err != nil {
		return "", err
	}

	name, err := channel.VerifyBot(ctx)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Bot verified", "name", name)

	return name, nil
}

// Send delivers text to the configured alert chat.
func Send(ctx context.Context, opts *Options, text string) error {
	ctx = logger.WithName(ctx, "send")

	channel, err := alertChannel(opts)
	if err != nil {
		return err
	}

	return channel.Notify(ctx, text)
}

// alertChannel builds a command channel that is only used to talk, never to poll.
func alertChannel(opts *Options) (*command.Channel, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err = applyLogLevel(cfg.LogLevel, opts.LogLevel); err != nil {
		return nil, err
	}

	bot, err := newBot(&cfg.Telegram)
	if err != nil {
		return nil, err
	}

	var unused int64

	return command.NewChannel(bot, nil, nil, &unused, cfg.Telegram.ChatID, command.WithRoom(cfg.Room))
}
