// Command shop-e2e runs the shopping app end-to-end suite and its
// environment tools.
package main

import "github.com/devicelab-dev/shop-e2e/pkg/cli"

func main() {
	cli.Execute()
}
