package main

import (
	"daily-habits-tracker/internal/commands"

	"github.com/charmbracelet/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		log.Fatal("error during command execution", "err", err)
	}
}
