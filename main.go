/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/

package main

import (
	"github.com/killallgit/ingest-platform/cmd"
)

func main() {
	cmd.Execute()
}
