package main

import "github.com/oshokin/vcpkg-artifacts/cmd/vcpkg-artifacts/cmd"

func main() {
	cmd.Execute()
}
