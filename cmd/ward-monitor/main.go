package main

import "github.com/oshokin/ward-monitor/cmd/ward-monitor/cmd"

func main() {
	cmd.Execute()
}
