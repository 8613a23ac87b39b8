package main

import (
	"fmt"
	"os"

	"github.com/TheLion102009/lioncraft-wiki/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lioncraft-wiki: %v\n", err)
		os.Exit(1)
	}
}
