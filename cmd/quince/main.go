// Command quince drives the outbound transmission engine from the command
// line, in the teacher's own flag.NewFlagSet-per-subcommand idiom (seen in
// the retrieved client.go before this module's expansion).
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "client":
		err = clientCommand(os.Args[2:])
	case "server":
		err = serverCommand(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: quince <client|server> [options]")
}
