package config

import (
	"flag"
)

var (
	console *bool
	debug   *bool
)

// Registers the logging flags on fs. Must be called before fs is parsed
// for the flags to have an effect.
func SetupFlags(fs *flag.FlagSet) {
	console = fs.Bool(
		"console",
		false,
		"Also log to the system console.")

	debug = fs.Bool(
		"debug",
		false,
		"Enable debug logging.")
}
