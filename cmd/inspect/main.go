package main

import (
	"flag"
	"fmt"
	"os"

	"chatsync/pkg/store"
)

// Operator tool: dump raw store keys (and optionally values) by prefix.
// Useful prefixes: user:, conv:, convkey:, msgid:, typing:.
func main() {
	var dbPath, prefix string
	var values bool
	flag.StringVar(&dbPath, "db", "./.database", "pebble DB path")
	flag.StringVar(&prefix, "prefix", "", "key prefix to scan (empty scans everything)")
	flag.BoolVar(&values, "values", false, "print values as well as keys")
	flag.Parse()

	if err := store.Open(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store at %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	keys, err := store.ListKeys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !values {
			fmt.Println(k)
			continue
		}
		v, err := store.GetKey(k)
		if err != nil {
			fmt.Printf("%s\t<error: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(keys))
}
