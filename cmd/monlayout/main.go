package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/monlayout/internal/config"
	"github.com/1broseidon/monlayout/internal/daemon"
	"github.com/1broseidon/monlayout/internal/session"
	"github.com/1broseidon/monlayout/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		if tui.IsTerminal() {
			os.Exit(runTUI(nil))
		}
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "set":
		os.Exit(runSet(os.Args[2:]))
	case "save":
		os.Exit(runSimple("save", os.Args[2:]))
	case "load":
		os.Exit(runSimple("load", os.Args[2:]))
	case "reset":
		os.Exit(runSimple("reset", os.Args[2:]))
	case "apply":
		os.Exit(runSimple("apply", os.Args[2:]))
	case "reload":
		os.Exit(runSimple("reload", os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monlayout <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the monlayout daemon (foreground)")
	fmt.Fprintln(w, "  tui                 Arrange displays interactively (default on a terminal)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  list [--json]       List tracked displays")
	fmt.Fprintln(w, "  move <d> <dx> <dy>  Shift a display by dx, dy pixels")
	fmt.Fprintln(w, "  set <d> <x> <y>     Place a display at x, y")
	fmt.Fprintln(w, "  save                Save the current layout")
	fmt.Fprintln(w, "  load                Load the saved layout")
	fmt.Fprintln(w, "  reset               Reset displays to automatic modes")
	fmt.Fprintln(w, "  apply               Apply the current layout")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "A display <d> is an output name (HDMI-1) or its index in 'monlayout list'.")
	fmt.Fprintln(w, "Run 'monlayout <command> --help' for command-specific options.")
}

func isHelpArg(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

// loadConfig loads path, or the default location when path is empty.
func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/monlayout/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monlayout daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Track displays, serve IPC and reapply the saved layout on hotplug.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the configuration.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	log.Printf("Configuration loaded (layout: %s, enumerator: %s)", cfg.LayoutFile, cfg.Enumerator)

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	d := daemon.New(cfg, daemon.Options{
		ConfigPath: res.Path,
		Level:      level,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					if err := d.Reload(); err != nil {
						log.Printf("Config reload failed: %v", err)
					}
				default:
					log.Println("Shutting down monlayout daemon...")
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := d.Run(ctx); err != nil {
		log.Printf("Daemon error: %v", err)
		return 1
	}
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/monlayout/config.yaml)")
	logPath := fs.String("log", "", "Write logs to this file (default: discard)")

	if len(args) > 0 && isHelpArg(args[0]) {
		fmt.Fprintln(os.Stderr, "Usage: monlayout tui [--path PATH] [--log FILE]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Arrange displays in the terminal. The startup layout is applied in the")
		fmt.Fprintln(os.Stderr, "background when apply_on_start is set.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  ←/→/↑/↓     Move the selected display by move_step pixels")
		fmt.Fprintln(os.Stderr, "  Shift+arrow Move by 10× move_step")
		fmt.Fprintln(os.Stderr, "  Tab         Select the next display")
		fmt.Fprintln(os.Stderr, "  s           Save the layout")
		fmt.Fprintln(os.Stderr, "  l           Load the saved layout")
		fmt.Fprintln(os.Stderr, "  r           Reset displays to automatic modes")
		fmt.Fprintln(os.Stderr, "  a, Enter    Apply the layout")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C   Quit")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: res.Config.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := tui.Run(ctx, res.Config, session.Options{Logger: logger}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
