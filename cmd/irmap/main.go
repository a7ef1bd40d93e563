package main

import "github.com/OpenTraceLab/irmap/cmd/irmap/cmd"

func main() {
	cmd.Execute()
}
