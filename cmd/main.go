package main

import (
	"os"

	"mdcat-quiz-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
