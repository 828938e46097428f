// This program provides administrative tooling against a running metering
// node.
package main

import "github.com/lamportlabs/feemeter/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
