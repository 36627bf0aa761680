// Package testsupport provides shared helpers for package tests: temp-dir
// seeded configs and in-memory result bundles.
package testsupport
