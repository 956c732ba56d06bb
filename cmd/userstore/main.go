// Command userstore inspects and edits a throttling state database.
package main

import (
	"fmt"
	"os"
)

var execute = func() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	execute()
}
