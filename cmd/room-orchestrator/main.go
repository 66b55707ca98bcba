package main

import "github.com/oshokin/room-automation/cmd/room-orchestrator/cmd"

func main() {
	cmd.Execute()
}
