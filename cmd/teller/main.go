package main

import (
	"context"
	"os"

	"github.com/cleared-dev/teller/internal/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), os.Args[1:]))
}
