package command

import "b3bot/pkg/cmd"

// Commands returns every command the bot offers.
func Commands(botName string) []cmd.Command {
	return []cmd.Command{
		&HelpCommand{},
		&SleepCommand{},
		&InviteCommand{BotName: botName},
		&SourceCommand{BotName: botName},
		&ReactCommand{},
		&VoiceJoinCommand{BotName: botName},
		&VoicePartCommand{BotName: botName},
		&PlayCommand{},
		&NowPlayingCommand{},
		&StopCommand{},
		&ClearSinceCommand{},
	}
}

// NewRegistry registers the bot's commands with their middleware. Privileged
// commands are gated before anything else runs.
func NewRegistry(botName string) (*cmd.Registry, error) {
	b := cmd.NewBuilder()
	for _, c := range Commands(botName) {
		var mws []cmd.Middleware
		if cmd.RequiresPrivilege(c) {
			mws = append(mws, RequirePrivilege())
		}
		mws = append(mws, WithLogging(), WithMetrics())
		b.Add(c, mws...)
	}
	return b.Build()
}
