package main

import (
	"github.com/joho/godotenv"

	"delisting-scanner/internal/cli"
)

func main() {
	// Optional .env for DELISTSCAN_* variables; absence is fine.
	_ = godotenv.Load()

	cli.Execute()
}
