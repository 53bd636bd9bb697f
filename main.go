package main

import "github.com/shiftwise/shift-manager/cmd"

func main() {
	cmd.Execute()
}
