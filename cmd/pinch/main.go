// Command pinch performs certificate-pinned HTTP fetches from the shell.
//
//	pinch fetch https://api.example.com/health --cert api --json
//	pinch version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := (&app{}).execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
