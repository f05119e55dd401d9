package main

import "github.com/bibbank/creditrisk/internal/cli"

func main() {
	cli.Execute()
}
