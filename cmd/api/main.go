package main

import "eventdesk.org/cmd/api/cmd"

func main() {
	cmd.Execute()
}
