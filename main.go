package main

import (
	"log"

	"github.com/Jdubz/job-finder-worker-sub014/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
