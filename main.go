// evrelay forwards agent events to a stream endpoint.
package main

import (
	"context"
	"fmt"
	"os"

	"evrelay/cmd"
)

func main() {
	err := cmd.Execute(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "evrelay: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
