package main

import "github.com/mcoot/pong-realtime/internal/cli"

func main() {
	cli.Execute()
}
