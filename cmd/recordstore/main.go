// Command recordstore runs record store operations from the command line.
package main

import "github.com/mesh-intelligence/recordstore/internal/cli"

func main() {
	cli.Execute()
}
