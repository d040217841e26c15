package main

import "ticketq/cmd"

func main() {
	cmd.Run()
}
