package config

// Empty is the root of the command line, every option belongs to a sub
// command.
type Empty struct{}

type HomeFlag struct {
	Home string `long:"home" description:"Path to the home directory holding config.toml" default:"."`
}
