package cli

// Command is a chain-mapper subcommand.
type Command string

const (
	// CommandCheck parses a spec and classifies its rules without types.
	CommandCheck Command = "check"
	// CommandLint checks a spec against the loaded schema packages.
	CommandLint Command = "lint"
	// CommandPaths lists the chains reaching every field of a type.
	CommandPaths Command = "paths"
)

// Config stores CLI options for a single run.
type Config struct {
	Command     Command
	SpecPath    string
	Packages    []string
	TypeName    string
	Depth       int
	Dir         string
	Verbose     bool
	ShowVersion bool
}
