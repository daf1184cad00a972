package main

import "github.com/vietddude/recipefetch/internal/cli"

func main() {
	cli.Execute()
}
