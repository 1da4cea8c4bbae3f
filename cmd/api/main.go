package main

import (
	"os"

	"github.com/kdh92417/team-tasks/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
