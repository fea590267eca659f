package main

import "coursetutor/internal/cli"

func main() {
	cli.Execute()
}
