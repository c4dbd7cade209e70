package main

import "github.com/theirongolddev/gadash/cmd"

func main() {
	cmd.Execute()
}
