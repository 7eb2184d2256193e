package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"b3bot/internal/chat"
	"b3bot/internal/music"
	"b3bot/pkg/cmd"
)

// Dispatcher routes incoming messages to registered commands.
type Dispatcher struct {
	registry *cmd.Registry
	services *Services
	// sink receives one "<author> text" line per message seen.
	sink *log.Logger
}

// NewDispatcher returns a dispatcher. sink may be nil.
func NewDispatcher(reg *cmd.Registry, svc *Services, sink *log.Logger) *Dispatcher {
	return &Dispatcher{registry: reg, services: svc, sink: sink}
}

// Registry returns the commands the dispatcher routes to.
func (d *Dispatcher) Registry() *cmd.Registry { return d.registry }

// Dispatch handles one received message. Errors meant for the user are
// answered in the channel; everything else is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, m *chat.Message) error {
	if d.sink != nil {
		d.sink.Printf("<%s> %s", m.Author.Name, RenderMentions(m))
	}
	d.services.Metrics.ObserveMessage()

	self := d.services.Transport.Self()
	if m.Author.ID == self.ID {
		return nil
	}
	name, args, ok := Parse(m, self, d.services.Prefix)
	if !ok {
		return nil
	}
	c, err := d.find(name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	req := &Request{Services: d.services, Registry: d.registry, Message: m, Name: name, Args: args}
	err = c.Run(ctx, &cmd.Invocation{Args: args, Data: req})
	if err == nil {
		return nil
	}
	if text, ok := d.userMessage(err); ok {
		if rerr := req.Reply(ctx, text); rerr != nil {
			return fmt.Errorf("failed to report %q to %s: %w", text, m.ChannelID, rerr)
		}
		return nil
	}
	return fmt.Errorf("command %s: %w", name, err)
}

func (d *Dispatcher) find(name string) (cmd.Command, error) {
	c, ok := d.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

// userMessage maps errors that users should see to their reply text.
func (d *Dispatcher) userMessage(err error) (string, bool) {
	var inv *InvalidArgumentsError
	switch {
	case errors.Is(err, ErrPermission):
		return ErrPermission.Error(), true
	case errors.As(err, &inv):
		return inv.Usage, true
	case errors.Is(err, music.ErrNoVoiceConnection):
		return "Use " + d.services.Prefix + "voice to join a voice channel", true
	}
	return "", false
}

func isUserError(err error) bool {
	var inv *InvalidArgumentsError
	return errors.Is(err, ErrPermission) || errors.As(err, &inv) || errors.Is(err, music.ErrNoVoiceConnection)
}
