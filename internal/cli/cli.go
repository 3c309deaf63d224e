package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandSay        Command = "say"
	CommandShow       Command = "show"
	CommandCount      Command = "count"
	CommandExport     Command = "export"
	CommandLists      Command = "lists"
	CommandNewList    Command = "newlist"
	CommandUseList    Command = "uselist"
	CommandRenameList Command = "renamelist"
	CommandDelList    Command = "dellist"
	CommandStaples    Command = "staples"
	CommandSuggest    Command = "suggest"
	CommandHistory    Command = "history"
	CommandVoice      Command = "voice"
	CommandListen     Command = "listen"
	CommandStop       Command = "stop"
	CommandCancel     Command = "cancel"
	CommandStatus     Command = "status"
	CommandTUI        Command = "tui"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandSay:        {},
	CommandShow:       {},
	CommandCount:      {},
	CommandExport:     {},
	CommandLists:      {},
	CommandNewList:    {},
	CommandUseList:    {},
	CommandRenameList: {},
	CommandDelList:    {},
	CommandStaples:    {},
	CommandSuggest:    {},
	CommandHistory:    {},
	CommandVoice:      {},
	CommandListen:     {},
	CommandStop:       {},
	CommandCancel:     {},
	CommandStatus:     {},
	CommandTUI:        {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	Ephemeral  bool
	ShowHelp   bool
}

// Parse resolves flags and the command with its trailing arguments.
// Flags must precede the command; everything after the command is
// passed through as command arguments.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--ephemeral":
			parsed.Ephemeral = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			parsed.Args = args[i+1:]
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--ephemeral] <command> [args]

Commands:
  say TEXT...        Run one voice-style command against the list
  show [FILTER]      Print the list grouped by aisle (all, active, completed)
  count              Print remaining and total item counts
  export [FORMAT]    Export the list (plain, markdown, json)
  lists              Print all lists with item counts
  newlist NAME...    Create a list and make it active
  uselist NAME...    Switch the active list by name
  renamelist NAME... Rename the active list
  dellist            Delete the active list
  staples [add|remove NAME... | apply]  Manage and apply staples
  suggest QUERY      Print suggestion matches for a partial item name
  history [frequent] Print recently added items, or the most re-added ones
  voice [NAME|reset] Print or set the preferred text-to-speech voice
  listen             Start a voice session (serves stop/cancel/status/say)
  stop               Stop the active voice session
  cancel             Cancel the active voice session
  status             Print current session state
  tui                Open the interactive list view
  doctor             Run configuration and environment checks
  version            Print version information
  help               Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/voxcart/config.conf)
  --ephemeral     Keep all state in memory; nothing is written to disk
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
