package main

import "github.com/systemshift/gitlet/internal/cli"

func main() {
	cli.Execute(cli.NewRootCmd())
}
