package main

import "github.com/iliyamo/suggestion-box/cmd/suggestbox/commands"

func main() {
	commands.Execute()
}
