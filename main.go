// Package main provides the entry point for TCAMSim.
// TCAMSim is a functional model of a TCAM accelerator with register-mapped
// and custom-instruction host front ends.
//
// For the full CLI, use: go run ./cmd/tcamsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("TCAMSim - TCAM Accelerator Functional Model")
	fmt.Println("")
	fmt.Println("Usage: tcamsim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to configuration JSON file")
	fmt.Println("  -frontend  Front-end binding: regmap-split, regmap-stream, copro")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tcamsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tcamsim' instead.")
	}
}
