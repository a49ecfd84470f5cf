package main

import (
	"github.com/xkilldash9x/webhand/cmd"
)

// main is the entry point for the webhand CLI.
func main() {
	cmd.Execute()
}
