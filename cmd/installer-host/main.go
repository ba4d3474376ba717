package main

import "github.com/oshokin/package-installer/cmd/installer-host/cmd"

func main() {
	cmd.Execute()
}
