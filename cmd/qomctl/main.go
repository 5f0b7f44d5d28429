// Command qomctl inspects and drives a device object model.
package main

import "github.com/mesh-intelligence/qom/internal/cli"

func main() {
	cli.Execute()
}
