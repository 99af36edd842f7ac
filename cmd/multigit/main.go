package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"multigit/internal/cli"
	"multigit/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to the repository list (default ~/"+config.ConfigFile+")")
	jobs := flag.IntP("jobs", "j", 1, "number of repositories to fetch in parallel")
	noColor := flag.Bool("no-color", false, "disable colored output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  list    show every repository's name, branch and description\n")
		fmt.Fprintf(os.Stderr, "  status  show uncommitted changes per repository\n")
		fmt.Fprintf(os.Stderr, "  fetch   download remote history for every repository\n")
		fmt.Fprintf(os.Stderr, "  pull    report titles only; the merge step is not implemented\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *configPath != "" {
		paths.ConfigPath = *configPath
	}

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(cli.Run(ctx, cfg, cli.Options{
		Command: flag.Arg(0),
		Jobs:    *jobs,
		Paths:   paths,
	}))
}
