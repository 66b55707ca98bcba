package main

import "github.com/oshokin/room-automation/cmd/room-scheduler/cmd"

func main() {
	cmd.Execute()
}
