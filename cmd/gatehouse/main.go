package main

import "github.com/mkarlsen/gatehouse/cmd/gatehouse/cmd"

func main() {
	cmd.Execute()
}
