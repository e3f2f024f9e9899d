// Package main provides the entry point for the cookiesnap CLI.
//
// cookiesnap drives a browser through a list of websites, collects the
// cookies each site sets, and stores them per site so they can be inspected,
// exported, or replayed into a fresh browser session later.
//
// Usage:
//
//	cookiesnap collect example.com https://example.org
//	cookiesnap sites --cookies
//	cookiesnap replay example.com
//
// See --help for all available options.
package main

// main is the entry point for cookiesnap.
func main() {
	Execute()
}
