package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/shipwright-release/shipwright/internal/cli"
)

func main() {
	if err := fang.Execute(context.Background(), cli.RootCmd); err != nil {
		os.Exit(1)
	}
}
