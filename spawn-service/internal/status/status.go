package status

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/weiawesome/wes-io-live/pkg/log"
)

// Status actions for spawn-service.
const (
	ActionConnect     = "stream.connect"
	ActionLikes       = "stream.likes"
	ActionGift        = "stream.gift"
	ActionRejected    = "stream.rejected"
	ActionEnqueue     = "spawn.enqueue"
	ActionSubscribe   = "renderer.subscribe"
	ActionUnsubscribe = "renderer.unsubscribe"
)

// FieldAction is the field carrying the status action.
const FieldAction = "action"

// Hook receives human-readable status lines. The level is a hint; commands
// are reported at debug so busy streams don't flood the log.
type Hook func(ctx context.Context, level zerolog.Level, action string, msg string)

// Log emits a structured status line via the context logger.
func Log(ctx context.Context, level zerolog.Level, action string, msg string) {
	l := log.Ctx(ctx)
	l.WithLevel(level).
		Str(log.FieldLogType, log.LogTypeStatus).
		Str(FieldAction, action).
		Msg(msg)
}

// Discard is a Hook that drops every line.
func Discard(context.Context, zerolog.Level, string, string) {}
