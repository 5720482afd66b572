package main

import "github.com/mkrenz/doseview/cmd/doseview/commands"

func main() {
	commands.Execute()
}
