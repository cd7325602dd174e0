// Package testsupport holds the fixtures and helpers shared by the engine
// test suites: the User/Account doubles, the variable-resolution scenarios
// and template-file helpers.
package testsupport
