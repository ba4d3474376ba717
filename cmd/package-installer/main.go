package main

import "github.com/oshokin/package-installer/cmd/package-installer/cmd"

func main() {
	cmd.Execute()
}
