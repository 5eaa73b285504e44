// Package app contains the core driver logic. It defines the main App
// struct, its configuration, and the commands it runs against a module's
// incremental state, decoupled from any specific entrypoint like a CLI.
package app
