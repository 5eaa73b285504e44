package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/fgdeps/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("fgdeps", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fgdeps - Incremental build planner driven by fine-grained dependency graphs.

Usage:
  fgdeps [options] COMMAND [PATH...]

Commands:
  plan                  Print the inputs to compile before any summary is seen.
  integrate INPUT...    Integrate the fresh summaries of compiled inputs and
                        print the inputs they invalidate.
  external PATH...      Print the inputs using a changed external dependency.
  verify                Check the persisted graph for consistency.
  dot                   Render the persisted graph in Graphviz DOT format.
  dump                  List every node of the persisted graph and its users.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "fgdeps.hcl", "Path to the driver configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the driver configuration file or directory (shorthand).")
	stateDirFlag := flagSet.String("state-dir", "", "Overrides the module's build-state directory.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	path := *configFlag
	if *cFlag != "" {
		path = *cFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath: path,
		StateDir:   *stateDirFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		Command:    flagSet.Arg(0),
		Args:       flagSet.Args()[1:],
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}
