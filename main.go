package main

import "embedrc/cmd"

func main() {
	cmd.Execute()
}
