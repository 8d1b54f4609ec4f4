package main

import "github.com/viktsys/utsref/cmd"

func main() {
	cmd.Execute()
}
