package main

import "starmirror/cmd"

func main() {
	cmd.Execute()
}
