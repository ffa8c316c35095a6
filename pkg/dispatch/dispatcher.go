package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/model"
)

// Target is the set of engine operations commands drive.
type Target interface {
	GoTo(ctx context.Context, index int) bool
	Next(ctx context.Context) bool
	Previous(ctx context.Context) bool
	First(ctx context.Context) bool
	Last(ctx context.Context) bool
	Submit(ctx context.Context) bool
	HandleFieldChange(ctx context.Context, id string, value model.Value) bool
	SetFieldText(ctx context.Context, id, raw string) bool
}

// Dispatcher applies commands to a Target. Invalid commands are logged and
// dropped.
type Dispatcher struct {
	target Target
	prefix string
	logger zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for dropped commands.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithFieldPrefix overrides the field set attribute prefix.
func WithFieldPrefix(prefix string) Option {
	return func(d *Dispatcher) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// New builds a dispatcher for target.
func New(target Target, options ...Option) (*Dispatcher, error) {
	if target == nil {
		return nil, errors.New("dispatch: target is required")
	}
	d := &Dispatcher{
		target: target,
		prefix: DefaultFieldPrefix,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Prefix returns the field set attribute prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Dispatch applies cmd and reports whether the engine changed.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) bool {
	switch cmd.Kind {
	case KindAction:
		return d.runAction(ctx, cmd.Action)
	case KindFieldSet:
		if cmd.FieldID == "" {
			d.logger.Warn().Msg("field set without field id")
			return false
		}
		if cmd.Text != nil {
			return d.target.SetFieldText(ctx, cmd.FieldID, *cmd.Text)
		}
		return d.target.HandleFieldChange(ctx, cmd.FieldID, cmd.Value)
	case KindGoTo:
		return d.target.GoTo(ctx, cmd.Page)
	default:
		d.logger.Warn().Stringer("kind", cmd.Kind).Msg("unknown command kind")
		return false
	}
}

func (d *Dispatcher) runAction(ctx context.Context, action Action) bool {
	switch action {
	case ActionSubmit:
		return d.target.Submit(ctx)
	case ActionNext:
		return d.target.Next(ctx)
	case ActionPrevious:
		return d.target.Previous(ctx)
	case ActionFirst:
		return d.target.First(ctx)
	case ActionLast:
		return d.target.Last(ctx)
	default:
		d.logger.Warn().Str("action", string(action)).Msg("unknown action")
		return false
	}
}

// DispatchAttribute parses an attribute change and applies it.
func (d *Dispatcher) DispatchAttribute(ctx context.Context, name, value string) bool {
	cmd, err := ParseAttribute(name, value, d.prefix)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			d.logger.Warn().Str("action", string(cmd.Action)).Msg("unknown action")
		} else {
			d.logger.Warn().Err(err).Str("attribute", name).Msg("ignoring attribute")
		}
		return false
	}
	return d.Dispatch(ctx, cmd)
}
