package main

import "codeterm/cmd"

func main() {
	cmd.Execute()
}
