package main

import "github.com/forPelevin/img2vid/internal/cli"

func main() { cli.Main() }
