package main

import "github.com/oshokin/package-installer/cmd/connector-packager/cmd"

func main() {
	cmd.Execute()
}
