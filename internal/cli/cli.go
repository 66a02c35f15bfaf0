package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandFetch   Command = "fetch"
	CommandAuth    Command = "auth"
	CommandLogin   Command = "login"
	CommandStatus  Command = "status"
	CommandCancel  Command = "cancel"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandFetch:   {},
	CommandAuth:    {},
	CommandLogin:   {},
	CommandStatus:  {},
	CommandCancel:  {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// takesArg maps commands to whether a positional argument is required,
// optional, or forbidden.
var takesArg = map[Command]string{
	CommandFetch: "optional",
	CommandLogin: "required",
}

type Parsed struct {
	Command    Command
	Arg        string
	ConfigPath string
	ShowHelp   bool
}

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

			rest := args[i+1:]
			switch takesArg[cmd] {
			case "required":
				if len(rest) != 1 {
					return Parsed{}, fmt.Errorf("command %q requires exactly one argument", arg)
				}
				parsed.Arg = rest[0]
			case "optional":
				if len(rest) > 1 {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
				if len(rest) == 1 {
					parsed.Arg = rest[0]
				}
			default:
				if len(rest) != 0 {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [arg]

Commands:
  fetch [url]    Fetch the transcript for a video URL (clipboard when omitted)
  auth           Sign in with the device-code flow
  login <token>  Install a token directly
  status         Print the progress status of a running fetch
  cancel         Ask a running sign-in to abort
  doctor         Run configuration and readiness checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Settings file path (default: $XDG_CONFIG_HOME/tubenote/settings.json)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
