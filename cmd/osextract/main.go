package main

import (
	"errors"
	"fmt"
	"os"

	"osextract/internal/cli"
	"osextract/internal/engine"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *engine.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
