package main

import "github.com/stridehq/stride/cmd"

func main() {
	cmd.Execute()
}
