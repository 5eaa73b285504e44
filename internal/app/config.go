package app

import (
	"errors"
	"fmt"
)

// Commands understood by App.Run.
const (
	CommandPlan      = "plan"
	CommandIntegrate = "integrate"
	CommandExternal  = "external"
	CommandVerify    = "verify"
	CommandDot       = "dot"
	CommandDump      = "dump"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl file or directory
	StateDir   string // overrides the module's state_dir when set

	LogFormat string
	LogLevel  string

	Command string
	Args    []string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}

	switch cfg.Command {
	case CommandPlan, CommandVerify, CommandDot, CommandDump:
		if len(cfg.Args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", cfg.Command)
		}
	case CommandIntegrate, CommandExternal:
		if len(cfg.Args) == 0 {
			return nil, fmt.Errorf("%s needs at least one path", cfg.Command)
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	return &cfg, nil
}
