package main

import "github.com/vsarmando/Ryze-Agents-sub002/internal/cli"

func main() {
	cli.Execute()
}
