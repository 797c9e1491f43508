// Package distribute publishes finished posts to external channels. A
// single channel's failure is logged and never fails the whole
// distribution: partial delivery is preferred over losing the job.
package distribute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/usman-manii/wallpaintingservices-sub000/content"
)

// Channel delivers a post to one destination.
type Channel interface {
	Name() string
	Publish(ctx context.Context, post content.Post) error
}

// Distributor holds the channel registry and the default channel set used
// when a job names none.
type Distributor struct {
	channels map[string]Channel
	defaults []string
	logger   *slog.Logger
}

func NewDistributor(defaults []string, logger *slog.Logger, channels ...Channel) *Distributor {
	m := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		m[ch.Name()] = ch
	}
	return &Distributor{
		channels: m,
		defaults: defaults,
		logger:   logger,
	}
}

// Distribute publishes the post to each requested channel (or the defaults)
// and returns the names of all attempted channels. Unknown channels and
// publish failures are logged, not propagated.
func (d *Distributor) Distribute(ctx context.Context, post content.Post, channels []string) []string {
	if len(channels) == 0 {
		channels = d.defaults
	}

	attempted := make([]string, 0, len(channels))
	for _, name := range channels {
		attempted = append(attempted, name)

		ch, ok := d.channels[name]
		if !ok {
			d.logger.Warn("unknown distribution channel",
				slog.String("channel", name),
				slog.String("post_id", post.ID.String()),
			)
			continue
		}

		if err := ch.Publish(ctx, post); err != nil {
			d.logger.Error("channel publish failed",
				slog.String("channel", name),
				slog.String("post_id", post.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.logger.Info("post distributed",
			slog.String("channel", name),
			slog.String("post_id", post.ID.String()),
		)
	}
	return attempted
}

// FuncChannel adapts a function into a Channel; used by tests and one-off
// destinations.
type FuncChannel struct {
	ChannelName string
	Fn          func(ctx context.Context, post content.Post) error
}

func (c FuncChannel) Name() string { return c.ChannelName }

func (c FuncChannel) Publish(ctx context.Context, post content.Post) error {
	if c.Fn == nil {
		return fmt.Errorf("channel %s has no publish func", c.ChannelName)
	}
	return c.Fn(ctx, post)
}
