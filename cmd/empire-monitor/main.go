// Package main is the entry point for the empire-monitor server.
package main

import (
	"os"

	"github.com/Sadat41/Empire-Enhanced-sub001/cmd/empire-monitor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
