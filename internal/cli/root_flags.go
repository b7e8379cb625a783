package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/config"
)

var (
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

func handleRootFlags(args []string) (bool, int) {
	if len(args) != 1 {
		return false, 0
	}

	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(rootStdout, "migbridge %s\n", buildVersion)
		return true, ExitOK
	case "--help", "-h", "help":
		printRootHelp(rootStdout)
		return true, ExitOK
	default:
		return false, 0
	}
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}

func printRootHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  migbridge [GLOBAL FLAGS] ready")
	fmt.Fprintln(out, "  migbridge [GLOBAL FLAGS] resources [--json]")
	fmt.Fprintln(out, "  migbridge [GLOBAL FLAGS] read <uri>")
	fmt.Fprintln(out, "  migbridge [GLOBAL FLAGS] chat <prompt...>")
	fmt.Fprintln(out, "  migbridge [GLOBAL FLAGS] init [--new-run] [--force]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  ready        Start and initialize the migration helper")
	fmt.Fprintln(out, "  resources    List resources exposed by the helper")
	fmt.Fprintln(out, "  read         Print the text of a resource")
	fmt.Fprintln(out, "  chat         Send a prompt and print the reply (reads stdin when no prompt is given)")
	fmt.Fprintln(out, "  init         Write a config file, optionally with a fresh run id")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprintf(out, "  --config <path>  Config file (default: %s)\n", config.ExampleConfigPath())
	fmt.Fprintln(out, "  --run-id <id>    Override helper.run_id")
	fmt.Fprintln(out, "  --verbose, -v    Log at debug level")
	fmt.Fprintln(out, "  --help, -h       Show help")
	fmt.Fprintln(out, "  --version, -V    Show version")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0 ok, 1 helper returned an error, 2 usage error, 3 internal or transport error")
}
