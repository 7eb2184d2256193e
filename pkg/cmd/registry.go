package cmd

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateCommand is returned by Builder.Build when two commands share a
// name or alias.
var ErrDuplicateCommand = errors.New("duplicate command")

// Registry stores commands by name. It does not perform dispatch; adapters look
// commands up and invoke them with their own payload. A Registry is read-only:
// it is produced by a Builder and never changes afterwards.
type Registry struct {
	commands map[string]Command // names and aliases
	primary  []Command          // sorted by name
}

// Builder collects commands at startup.
type Builder struct {
	entries []Command
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add queues a command, wrapped with the given middlewares.
func (b *Builder) Add(c Command, mws ...Middleware) *Builder {
	b.entries = append(b.entries, Apply(c, mws...))
	return b
}

// Build validates uniqueness and freezes the registry.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(b.entries))}
	for _, c := range b.entries {
		names := append([]string{c.Name()}, AliasesOf(c)...)
		for _, n := range names {
			if _, ok := r.commands[n]; ok {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, n)
			}
			r.commands[n] = c
		}
		r.primary = append(r.primary, c)
	}
	sort.Slice(r.primary, func(i, j int) bool {
		return r.primary[i].Name() < r.primary[j].Name()
	})
	return r, nil
}

// Lookup returns the command registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// All returns all registered commands, sorted by name. Aliases are not repeated.
func (r *Registry) All() []Command {
	out := make([]Command, len(r.primary))
	copy(out, r.primary)
	return out
}
