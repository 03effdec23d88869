package main

import (
	"fmt"
	"os"

	"github.com/noooah2000/solve-next/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
