package main

import (
	"os"

	"github.com/joho/godotenv"

	movetunecmder "github.com/movetune/movetune/cmd/movetune"
)

func main() {
	// Best-effort .env loading; absent files are fine.
	_ = godotenv.Load()

	cmd := movetunecmder.NewMovetuneCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
