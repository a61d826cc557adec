package main

import "fitsync/internal/cli"

func main() {
	cli.Execute()
}
