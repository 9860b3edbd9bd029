package main

import "workdesk/cmd/cli"

func main() {
	cli.Execute()
}
