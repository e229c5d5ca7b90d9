package main

import "github.com/nhle/trelloha/internal/cli"

var version = "dev"

func main() {
	cli.Main(version)
}
