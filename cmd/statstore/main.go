/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
