//go:build blockproofs
// +build blockproofs

package miner

// proofBuild forces storage proof recording on every sealed block when the
// `blockproofs` tag is enabled.
const proofBuild = true
