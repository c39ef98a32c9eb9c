package main

import "github.com/KaramelBytes/climatelens-cli/cmd"

func main() {
	cmd.Execute()
}
