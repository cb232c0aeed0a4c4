// dedupe finds files with identical content under one or more root
// directories and resolves the duplicates by moving them to the trash.
//
// Every regular file is hashed with SHA-256. Files that share a digest
// form a numbered group; the rest are listed as unique, empty, directory
// or error records. Output is colored text or NDJSON.
package main

import (
	"os"

	"github.com/nethoundsh/dedupe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
