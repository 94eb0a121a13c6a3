// Package cli assembles the buildstamp command-line application.
//
// It wires the Cobra root command, Viper-backed configuration, the zap
// logger, and the provenance resolution pipeline, and prints the resolved
// repository status for consumption by build scripts.
package cli
