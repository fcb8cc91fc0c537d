// Command gitsyncd keeps a Git working copy synchronized with its remote.
package main

import "github.com/gitsyncd/gitsyncd/internal"

func main() {
	internal.Run()
}
