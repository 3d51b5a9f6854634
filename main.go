package main

import "github.com/mantoumaster/ai-hedge-fund-API/internal/cli"

func main() {
	cli.Run()
}
