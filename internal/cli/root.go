package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/config"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/helper"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/logging"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/paths"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/response"
	"go.uber.org/zap"
)

type helperClient interface {
	EnsureReady(ctx context.Context) error
	ListResources(ctx context.Context) ([]response.Resource, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	SendChat(ctx context.Context, prompt string) (string, error)
	Close()
}

var (
	rootStdin   io.Reader = os.Stdin
	stdinIsTTYFn          = func() bool { return stdinIsTTY(os.Stdin) }
	newClientFn           = func(opts helper.Options) helperClient { return helper.New(opts) }
	newRunIDFn            = uuid.NewString
)

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	if handled, code := handleRootFlags(args); handled {
		return code
	}

	opts, rest, err := parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitUsageErr
	}
	if len(rest) == 0 {
		printRootHelp(rootStderr)
		return ExitUsageErr
	}
	if handled, code := handleRootFlags(rest[:1]); handled {
		return code
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = paths.ConfigFile()
	}

	name, commandArgs := rest[0], rest[1:]
	if name == "init" {
		return runInit(configPath, opts, commandArgs)
	}

	cmd, err := parseCommand(name, commandArgs)
	if err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitUsageErr
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitInternal
	}
	if opts.runID != "" {
		cfg.Helper.RunID = opts.runID
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(rootStderr, "migbridge: invalid config: %v\n", verr)
		return ExitUsageErr
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitInternal
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientOpts := helper.OptionsFromConfig(cfg, logger)
	clientOpts.ClientVersion = buildVersion
	client := newClientFn(clientOpts)
	defer client.Close()

	if err := cmd.run(ctx, client, rootStdout); err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		logger.Debug("command failed",
			zap.String("command", name),
			zap.Stringer("kind", helper.Classify(err)),
			zap.Error(err),
		)
		return exitCodeFor(err)
	}
	return ExitOK
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return logging.NewWithOutput(cfg, rootStderr)
	}
	return logging.New(cfg)
}

type command struct {
	run func(ctx context.Context, client helperClient, out io.Writer) error
}

func parseCommand(name string, args []string) (command, error) {
	switch name {
	case "ready":
		if len(args) != 0 {
			return command{}, fmt.Errorf("ready takes no arguments")
		}
		return command{run: runReady}, nil
	case "resources":
		parsed, err := parseResourcesArgs(args)
		if err != nil {
			return command{}, err
		}
		return command{run: func(ctx context.Context, client helperClient, out io.Writer) error {
			return runResources(ctx, client, out, parsed.mode)
		}}, nil
	case "read":
		if len(args) != 1 || args[0] == "" {
			return command{}, fmt.Errorf("read requires exactly one resource uri")
		}
		uri := args[0]
		return command{run: func(ctx context.Context, client helperClient, out io.Writer) error {
			return runRead(ctx, client, out, uri)
		}}, nil
	case "chat":
		prompt, err := chatPrompt(args)
		if err != nil {
			return command{}, err
		}
		return command{run: func(ctx context.Context, client helperClient, out io.Writer) error {
			return runChat(ctx, client, out, prompt)
		}}, nil
	default:
		return command{}, fmt.Errorf("unknown command: %s", name)
	}
}

func runReady(ctx context.Context, client helperClient, out io.Writer) error {
	if err := client.EnsureReady(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "ready")
	return nil
}

func runResources(ctx context.Context, client helperClient, out io.Writer, mode outputMode) error {
	resources, err := client.ListResources(ctx)
	if err != nil {
		return err
	}
	return writeResources(out, mode, resources)
}

func runRead(ctx context.Context, client helperClient, out io.Writer, uri string) error {
	text, err := client.ReadResource(ctx, uri)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, response.EnsureTrailingNewline(text))
	return err
}

func runChat(ctx context.Context, client helperClient, out io.Writer, prompt string) error {
	reply, err := client.SendChat(ctx, prompt)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, response.EnsureTrailingNewline(reply))
	return err
}

// chatPrompt joins the positional words, or reads the whole of stdin when
// none are given and stdin is not a terminal.
func chatPrompt(args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "" && !stdinIsTTYFn() && rootStdin != nil {
		data, err := io.ReadAll(rootStdin)
		if err != nil {
			return "", fmt.Errorf("reading prompt from stdin: %w", err)
		}
		prompt = strings.TrimRight(string(data), "\r\n")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("chat requires a prompt")
	}
	return prompt, nil
}

func runInit(path string, opts globalOptions, args []string) int {
	parsed, err := parseInitArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitUsageErr
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !parsed.force && !parsed.newRun && opts.runID == "" {
		fmt.Fprintf(rootStderr, "migbridge: config already exists at %s (use --force to rewrite it)\n", path)
		return ExitUsageErr
	}

	cfg := config.Default()
	if exists && !parsed.force {
		if cfg, err = config.LoadForEditFrom(path); err != nil {
			fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
			return ExitInternal
		}
	}

	switch {
	case opts.runID != "":
		cfg.Helper.RunID = opts.runID
	case parsed.newRun:
		cfg.Helper.RunID = newRunIDFn()
	}

	if verr := config.ValidateForCurrentEnv(cfg); verr != nil {
		fmt.Fprintf(rootStderr, "migbridge: invalid config: %v\n", verr)
		return ExitUsageErr
	}
	if err := config.SaveTo(path, cfg); err != nil {
		fmt.Fprintf(rootStderr, "migbridge: %v\n", err)
		return ExitInternal
	}

	fmt.Fprintf(rootStdout, "wrote %s\n", path)
	if cfg.Helper.RunID != "" {
		fmt.Fprintf(rootStdout, "run id: %s\n", cfg.Helper.RunID)
	}
	return ExitOK
}

func stdinIsTTY(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return true
	}
	return info.Mode()&fs.ModeCharDevice != 0
}
