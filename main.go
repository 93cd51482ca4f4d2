package main

import "github.com/josephlewis42/mush/cmd"

func main() {
	cmd.Execute()
}
