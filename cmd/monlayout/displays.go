package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/1broseidon/monlayout/internal/ipc"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monlayout status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("display_count:  %d\n", status.DisplayCount)
	fmt.Printf("inactive_count: %d\n", status.InactiveCount)
	fmt.Printf("layout_file:    %s\n", status.LayoutFile)
	fmt.Printf("pending_jobs:   %d\n", status.PendingJobs)
	if status.LastOp != "" {
		fmt.Printf("last_op:        %s\n", status.LastOp)
	}
	if status.LastError != "" {
		fmt.Printf("last_error:     %s\n", status.LastError)
	}
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monlayout list [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the daemon's tracked displays and inactive saved outputs.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	data, err := client.ListDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printDisplays(os.Stdout, data)
	return 0
}

func printDisplays(w io.Writer, data *ipc.DisplaysData) {
	if len(data.Displays) == 0 {
		fmt.Fprintln(w, "No displays tracked")
	}
	for _, d := range data.Displays {
		state := "connected"
		if !d.Connected {
			state = "disconnected"
		}
		fmt.Fprintf(w, "%d  %-10s %-9s @ %-12s %-8s %s\n",
			d.Index, d.Name, d.Resolution, fmt.Sprintf("%dx%d", d.X, d.Y), d.Rotation, state)
	}
	if len(data.Inactive) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Saved but not connected:")
		for _, d := range data.Inactive {
			fmt.Fprintf(w, "-  %-10s %-9s @ %-12s %s\n",
				d.Name, d.Resolution, fmt.Sprintf("%dx%d", d.X, d.Y), d.Rotation)
		}
	}
}

// parseDisplayArgs reads "<display> <a> <b>". Flag parsing is skipped so
// negative offsets are not taken for flags.
func parseDisplayArgs(args []string) (string, int, int, error) {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) != 3 {
		return "", 0, 0, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	a, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid number %q", args[1])
	}
	b, err := strconv.Atoi(args[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid number %q", args[2])
	}
	return args[0], a, b, nil
}

func runMove(args []string) int {
	usage := func(w io.Writer) {
		fmt.Fprintln(w, "Usage: monlayout move <display> <dx> <dy>")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Shift a display in the daemon's layout. Run 'monlayout apply' to apply it.")
	}
	if len(args) > 0 && isHelpArg(args[0]) {
		usage(os.Stdout)
		return 0
	}
	display, dx, dy, err := parseDisplayArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 2
	}

	info, err := ipc.NewClient().MoveDisplay(display, dx, dy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s -> %dx%d\n", info.Name, info.X, info.Y)
	return 0
}

func runSet(args []string) int {
	usage := func(w io.Writer) {
		fmt.Fprintln(w, "Usage: monlayout set <display> <x> <y>")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Place a display in the daemon's layout. Run 'monlayout apply' to apply it.")
	}
	if len(args) > 0 && isHelpArg(args[0]) {
		usage(os.Stdout)
		return 0
	}
	display, x, y, err := parseDisplayArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 2
	}

	info, err := ipc.NewClient().SetPosition(display, x, y)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s -> %dx%d\n", info.Name, info.X, info.Y)
	return 0
}

var simpleCommands = map[string]string{
	"save":   "Save the daemon's layout to the layout file.",
	"load":   "Load the saved layout into the daemon by output name. Does not apply.",
	"reset":  "Reset every display to its automatic mode and normal rotation.",
	"apply":  "Apply the daemon's layout in one xrandr invocation.",
	"reload": "Reload the daemon configuration.",
}

// runSimple handles the argument-less IPC commands.
func runSimple(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: monlayout %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, simpleCommands[name])
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	switch name {
	case "save":
		if err := client.SaveLayout(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Layout saved")
	case "load":
		data, err := client.LoadLayout()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if data.NoLayout {
			fmt.Println("No saved layout found")
			return 0
		}
		fmt.Printf("Loaded %d displays", len(data.Applied))
		if len(data.Inactive) > 0 {
			fmt.Printf(" (%d saved outputs not connected)", len(data.Inactive))
		}
		fmt.Println()
	case "reset":
		if _, err := client.ResetLayout(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Displays reset to automatic modes")
	case "apply":
		if _, err := client.ApplyLayout(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Configuration complete!")
	case "reload":
		if err := client.Reload(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Configuration reloaded")
	}
	return 0
}
