package main

import "github.com/dayuer/simplex-bot-go/cmd"

func main() {
	cmd.Execute()
}
