package main

import (
	"log"

	"github.com/nafishasalsabil/reddit-clone/internal/server"
)

func main() {
	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
