package main

import "github.com/letmejustputthishere/icp-evm-coprocessor-starter/cmd"

func main() {
	cmd.Execute()
}
