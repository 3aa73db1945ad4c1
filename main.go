package main

import "github.com/GiuseppeMinardi/book-library/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
