package main

import (
	"os"

	chatlinecmder "github.com/papercomputeco/chatline/cmd/chatline"
)

func main() {
	cmd := chatlinecmder.NewChatlineCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
