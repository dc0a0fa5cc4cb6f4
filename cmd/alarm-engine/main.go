package main

import "github.com/appzem/alarm-engine/cmd/alarm-engine/cmd"

func main() {
	cmd.Execute()
}
