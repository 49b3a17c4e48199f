package main

import "github.com/guimove/ricoverage/cmd"

func main() {
	cmd.Execute()
}
