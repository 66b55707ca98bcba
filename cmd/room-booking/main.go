package main

import "github.com/oshokin/room-automation/cmd/room-booking/cmd"

func main() {
	cmd.Execute()
}
