package main

import "github.com/soko-platform/ms-go-settlement/cmd"

func main() {
	cmd.Execute()
}
