package cli

import (
	"fmt"
	"strings"
)

type globalOptions struct {
	configPath string
	runID      string
	verbose    bool
}

// parseGlobalFlags consumes flags ahead of the command name and returns the
// remaining arguments, command first.
func parseGlobalFlags(args []string) (globalOptions, []string, error) {
	var opts globalOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			opts.verbose = true
		case arg == "--config" || arg == "--run-id":
			if i+1 >= len(args) {
				return globalOptions{}, nil, fmt.Errorf("missing value for %s", arg)
			}
			i++
			opts.set(arg, args[i])
		case strings.HasPrefix(arg, "--config=") || strings.HasPrefix(arg, "--run-id="):
			name, value, _ := strings.Cut(arg, "=")
			opts.set(name, value)
		case arg == "--help" || arg == "-h" || arg == "--version" || arg == "-V":
			return opts, args[i:], nil
		case arg == "--":
			return opts, args[i+1:], nil
		case strings.HasPrefix(arg, "-"):
			return globalOptions{}, nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			return opts, args[i:], nil
		}
	}
	return opts, nil, nil
}

func (o *globalOptions) set(name, value string) {
	switch name {
	case "--config":
		o.configPath = value
	case "--run-id":
		o.runID = value
	}
}

type resourcesArgs struct {
	mode outputMode
}

func parseResourcesArgs(args []string) (resourcesArgs, error) {
	parsed := resourcesArgs{mode: outputModeText}
	for _, arg := range args {
		switch arg {
		case "--json":
			parsed.mode = outputModeJSON
		default:
			return resourcesArgs{}, fmt.Errorf("unsupported argument for resources: %s", arg)
		}
	}
	return parsed, nil
}

type initArgs struct {
	newRun bool
	force  bool
}

func parseInitArgs(args []string) (initArgs, error) {
	var parsed initArgs
	for _, arg := range args {
		switch arg {
		case "--new-run":
			parsed.newRun = true
		case "--force":
			parsed.force = true
		default:
			return initArgs{}, fmt.Errorf("unsupported argument for init: %s", arg)
		}
	}
	return parsed, nil
}
