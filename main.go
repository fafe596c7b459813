package main

import "github.com/killallgit/compass/cmd"

func main() {
	cmd.Execute()
}
