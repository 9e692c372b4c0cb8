package main

import (
	"flag"

	"drainer-registry/server"

	"github.com/apex/log"
)

func main() {
	flag.Parse()
	log.Info("Hello!")
	server.StartService()
	log.Info("Bye!")
}
