package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
