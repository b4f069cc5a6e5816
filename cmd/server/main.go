package main

import "github.com/terrastories/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
