// Package app wires application dependencies for the CLI.
//
// LoadConfig resolves settings through viper; NewWire builds the sealed
// account store, the directory client and the pre-key service from them.
package app
