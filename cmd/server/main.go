package main

import (
	"github.com/eslsoft/studyhub/cmd"
)

func main() {
	cmd.Execute()
}
