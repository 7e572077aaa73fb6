package main

import "github.com/pocketbrain/wacore/cmd"

func main() {
	cmd.Execute()
}
