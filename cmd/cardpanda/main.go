package main

import "github.com/MeKo-Tech/cardpanda/cmd/cardpanda/cmd"

func main() {
	cmd.Execute()
}
