// Lookuply search API: privacy-first two-phase search and summarize over a
// full-text index and a local language model.
package main

import "lookuply-search-api/cmd"

func main() {
	cmd.Execute()
}
