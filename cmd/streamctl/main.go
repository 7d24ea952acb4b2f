package main

import "github.com/vietddude/streampay/internal/cli"

func main() {
	cli.Execute()
}
