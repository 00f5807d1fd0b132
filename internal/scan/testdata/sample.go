// Package sample is scanned in tests.
package sample

import "fmt"

/*
Multi-line block
with "quotes" inside.
*/
const raw = `not // a comment
nor /* this */`

// Greet prints a greeting.
func Greet(name string) {
	s := "http://example.com" // trailing
	r := '/'
	fmt.Println(s, r, name) /* inline */ // after
}
