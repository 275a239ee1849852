package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const usage = `usage: chain-mapper <command> [flags]

commands:
  check  --spec FILE                        parse chains and classify rules
  lint   --spec FILE --pkg PATTERN...       check a spec against Go packages
  paths  --pkg PATTERN... --type PKG.TYPE   list the chains of a type`

// ParseArgs parses command line arguments into Config.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	if len(args) == 0 {
		return nil, fmt.Errorf("a command is required\n%s", usage)
	}

	if args[0] == "--version" || args[0] == "-v" {
		cfg.ShowVersion = true
		return cfg, nil
	}

	cfg.Command = Command(args[0])

	fs := pflag.NewFlagSet("chain-mapper "+args[0], pflag.ContinueOnError)
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log compiler progress to stderr")
	fs.StringVarP(&cfg.Dir, "dir", "C", "", "directory packages are loaded from")

	switch cfg.Command {
	case CommandCheck:
		fs.StringVarP(&cfg.SpecPath, "spec", "s", "", "mapping spec file")
	case CommandLint:
		fs.StringVarP(&cfg.SpecPath, "spec", "s", "", "mapping spec file")
		fs.StringSliceVarP(&cfg.Packages, "pkg", "p", nil, "package patterns holding the spec types")
	case CommandPaths:
		fs.StringSliceVarP(&cfg.Packages, "pkg", "p", nil, "package patterns holding the type")
		fs.StringVarP(&cfg.TypeName, "type", "t", "", "type name, e.g. store.Order")
		fs.IntVar(&cfg.Depth, "depth", 3, "maximum nesting depth")
	default:
		return nil, fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if cfg.Command != CommandPaths && strings.TrimSpace(cfg.SpecPath) == "" {
		return nil, fmt.Errorf("--spec is required")
	}
	if cfg.Command != CommandCheck && len(cfg.Packages) == 0 {
		return nil, fmt.Errorf("--pkg is required")
	}
	if cfg.Command == CommandPaths && strings.TrimSpace(cfg.TypeName) == "" {
		return nil, fmt.Errorf("--type is required")
	}
	if cfg.Depth < 0 {
		return nil, fmt.Errorf("--depth must not be negative")
	}

	return cfg, nil
}
