// Package testutil provides deterministic fixtures shared by package tests.
package testutil
