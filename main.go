package main

import "github.com/agentic-research/docmap/cmd"

func main() {
	cmd.Execute()
}
