package main

import "github.com/rustyeddy/pairs/internal/cli"

func main() {
	cli.Execute()
}
