package main

import "github.com/notargets/gofsi/cmd"

func main() {
	cmd.Execute()
}
