package main

import "github.com/pelmix/pelmix/cmd"

func main() {
	cmd.Execute()
}
