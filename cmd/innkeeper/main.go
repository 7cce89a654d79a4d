package main

import "github.com/r0zar/innkeeper/internal/cli"

func main() {
	cli.Execute()
}
