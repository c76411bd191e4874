package main

import "github.com/theirongolddev/afkmon/cmd"

func main() {
	cmd.Execute()
}
