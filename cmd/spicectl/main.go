package main

import "github.com/HatfieldAlex/MyPocketSpice/pkg/cli"

func main() {
	cli.Execute()
}
