package main

import "github.com/iksnae/context-capture/cmd"

func main() {
	cmd.Execute()
}
