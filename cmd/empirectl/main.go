// Package main is the entry point for the empirectl CLI client.
package main

import (
	"github.com/Sadat41/Empire-Enhanced-sub001/cmd/empirectl/cmd"
)

func main() {
	cmd.Execute()
}
