// Command sifgroup groups JSON Lines data by a key and aggregates the values of each group.
//
//	sifgroup people.jsonl --key meta.team --value mean:age
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
