// Package main is the entry point for the mmlcov CLI.
package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/mmltools/mmlcov/cover/cmd"
)

const pprofDebug = false

func main() {
	if pprofDebug {
		go func() {
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				log.Printf("pprof server failure: %v", err)
			}
		}()
	}

	cmd.Execute()
}
