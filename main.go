package main

import "github.com/clinicalai/apiv1/cli"

func main() {
	cli.Execute()
}
