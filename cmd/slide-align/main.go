package main

import "github.com/b08x/slide-align/internal/cli"

func main() {
	cli.Main()
}
