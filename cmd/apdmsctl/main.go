// Command apdmsctl answers calendar and compliance questions from the shell
// using the same rules as the API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
