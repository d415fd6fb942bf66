// Command cgpa scores a course-data JSON document without running the server.
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := commandLine{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		dial:   dialGRPC,
	}
	if err := cli.run(os.Args[1:]); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
