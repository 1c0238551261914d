package main

import (
	"os"

	"github.com/joho/godotenv"

	movechatcmder "github.com/movetune/movetune/cmd/movechat"
)

func main() {
	// Best-effort .env loading; absent files are fine.
	_ = godotenv.Load()

	cmd := movechatcmder.NewMovechatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
