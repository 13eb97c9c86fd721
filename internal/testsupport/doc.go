// Package testsupport provides shared test fixtures: temp-dir configs and
// correctly named photo pair files.
package testsupport
