// Package template defines engine-agnostic template contracts, the render
// Context fed to them and the normalisation that turns arbitrary Go values
// into the map/slice trees template engines resolve variable paths against.
package template
