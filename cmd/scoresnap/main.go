package main

import "github.com/mcoot/scoresnap/internal/cli"

func main() {
	cli.Execute()
}
