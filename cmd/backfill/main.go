package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/fortuna/clueboard/cmd/backfill/commands"
)

func main() {
	_ = godotenv.Load()
	commands.ExecuteContext(context.Background())
}
