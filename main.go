package main

import "github.com/bpmforge/bpmgen/cmd"

func main() {
	cmd.Execute()
}
