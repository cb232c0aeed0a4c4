package main

import (
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/nethoundsh/dedupe/internal/cli"
)

func main() {
	dir := "./docs/man"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}
	header := &doc.GenManHeader{
		Title:   "DEDUPE",
		Section: "1",
	}
	if err := doc.GenManTree(cli.RootCmd(), header, dir); err != nil {
		log.Fatal(err)
	}
}
