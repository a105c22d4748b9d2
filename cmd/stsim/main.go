package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/zurustar/stsim/pkg/app"
)

func main() {
	application := app.New(os.Stdout, os.Stderr)
	atexit.Register(func() {
		application.Close()
	})

	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
