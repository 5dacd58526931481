package main

import "github.com/KaramelBytes/engage-cli/cmd"

func main() {
	cmd.Execute()
}
