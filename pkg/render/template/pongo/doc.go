// Package pongo adapts github.com/flosch/pongo2/v6 to the template.Evaluator
// contract.
//
// Variables resolve with Django-style paths:
//
//	Hello {{ user }}!
//	Hello {{ user.0 }}!
//	Hello {{ account.user.name }}!
//
// Context values are normalised before rendering, so struct properties are
// addressed by their json tag names and nested contexts resolve like maps.
// Output is not HTML-escaped unless WithAutoescape(true) is given; the trim
// and lowerfirst filters are always available.
package pongo
