// Author: KleaSCM
// Email: KleaSCM@gmail.com
// File: target.go
// Description: Standalone vulnerable challenge binary for Smashlab. Builds to the target the exploit harness and the lab driver run against. Pass --hardened to get the bounds-checked build.

package main

import (
	"os"

	"github.com/kleascm/smashlab/pkg/target"
)

func main() {
	hardened := false
	for _, arg := range os.Args[1:] {
		if arg == "--hardened" {
			hardened = true
		}
	}

	challenge := target.New(target.Config{Hardened: hardened})
	challenge.Run()
}
