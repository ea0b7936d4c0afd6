//go:build !blockproofs
// +build !blockproofs

package miner

// proofBuild is a compile-time constant that reports whether the build was
// compiled with the `blockproofs` tag enabled.
const proofBuild = false
