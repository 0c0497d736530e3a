package main

import "github.com/funvibe/objectify/pkg/cli"

func main() {
	cli.Run()
}
