package main

import "github.com/bbarni2020/AI/internal/commands"

func main() {
	commands.Execute()
}
