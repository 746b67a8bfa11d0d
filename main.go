package main

import "github.com/nandias/storefront/cmd"

func main() {
	cmd.Start()
}
