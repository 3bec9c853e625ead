package main

import "github.com/example/tra-booker/cmd"

func main() {
	cmd.Execute()
}
