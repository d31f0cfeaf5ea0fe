// cmd/repaircafe is the application entry point.
package main

import "github.com/repair-commons/repaircafe/internal/cli"

func main() {
	cli.Execute()
}
