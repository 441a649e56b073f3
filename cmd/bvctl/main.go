// Command bvctl runs the simulation and the advisor from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&statusCmd{}, "market")
	commander.Register(&simulateCmd{}, "market")
	commander.Register(&valueCmd{}, "portfolio")
	commander.Register(&adviseCmd{}, "advisor")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var plain = flag.Bool("plain", false, "print raw markdown instead of rendering it")

func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
