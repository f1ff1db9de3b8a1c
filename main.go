package main

import "github.com/KaramelBytes/mindscope/cmd"

func main() {
	cmd.Execute()
}
