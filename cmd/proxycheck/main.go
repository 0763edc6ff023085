package main

import (
	"proxycheck/internal/app"

	"github.com/charmbracelet/log"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal("proxycheck terminated", "error", err)
	}
}
