package main

import (
	"videosplit/cmd/videosplit/cmd"
)

func main() {
	cmd.Execute()
}
