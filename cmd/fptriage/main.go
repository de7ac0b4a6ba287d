// Command fptriage filters vulnerability scanner findings.
package main

import "github.com/zero-day-ai/triage/cli"

func main() {
	cli.Execute()
}
