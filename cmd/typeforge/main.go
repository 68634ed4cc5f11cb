// Package main is the entry point for typeforge.
package main

func main() {
	Execute()
}
