package main

import "github.com/nextlevelbuilder/hardhat/cmd"

func main() {
	cmd.Execute()
}
