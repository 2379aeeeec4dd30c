package main

import (
	"flag"
	"fmt"

	"github.com/dudk/phonograph/builtin"
	"github.com/dudk/phonograph/graph"
)

type kindsCommand struct{}

func (cmd *kindsCommand) Name() string {
	return "kinds"
}

func (cmd *kindsCommand) Help() string {
	return "Show the list of builtin node kinds"
}

func (cmd *kindsCommand) Register(*flag.FlagSet) {}

func (cmd *kindsCommand) Run() error {
	registry := graph.NewRegistry()
	builtin.Register(registry)
	fmt.Println("Builtin node kinds:")
	for _, kind := range registry.Kinds() {
		fmt.Printf("\t%s\n", kind)
	}
	return nil
}
