// compflags resolves per-file build settings for code-completion engines.
package main

import "github.com/albertocavalcante/compflags/cmd/compflags/internal/cli"

func main() {
	cli.Execute()
}
