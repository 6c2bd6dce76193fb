// Package commands defines the otkeys CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init       Create the local account file
//   - generate   Add one-time keys to the pool
//   - keys       List keys awaiting upload
//   - publish    Upload unpublished keys to the directory
//   - status     Show pool and directory counts
//   - claim      Take one of a user's published keys (peer side)
//   - consume    Consume a key named by a peer and print the shared-secret fingerprint
//
// # Implementation
//
// The root command resolves configuration (flags, OTKEYS_* environment,
// config.yaml in the home directory) and builds the dependency graph before
// any subcommand runs.
package commands
