// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is parsed and
// dispatched (chat prefix, mention, CLI) is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries the minimal input any command runner can pass: arguments
// and an opaque payload. Adapters set Data to their own request type.
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution. Permissions and
// aliases are optional interfaces checked through Root.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased is implemented by commands reachable under more than one name.
type Aliased interface {
	Aliases() []string
}

// Privileged is implemented by commands that may be restricted to privileged users.
type Privileged interface {
	RequiresPrivilege() bool
}

// RequiresPrivilege reports whether the root of c declares itself privileged.
func RequiresPrivilege(c Command) bool {
	p, ok := Root(c).(Privileged)
	return ok && p.RequiresPrivilege()
}

// AliasesOf returns the aliases declared by the root of c.
func AliasesOf(c Command) []string {
	if a, ok := Root(c).(Aliased); ok {
		return a.Aliases()
	}
	return nil
}
