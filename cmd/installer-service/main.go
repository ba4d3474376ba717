package main

import "github.com/oshokin/package-installer/cmd/installer-service/cmd"

func main() {
	cmd.Execute()
}
