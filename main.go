package main

import "github.com/iksnae/rag-chat/cmd"

func main() {
	cmd.Execute()
}
