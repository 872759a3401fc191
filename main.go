package main

import "github.com/notargets/govis/cmd"

func main() {
	cmd.Execute()
}
