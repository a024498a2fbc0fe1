// Package updater replaces the running binary with a published release.
//
// A release is described by a YAML manifest holding the version, the binary
// URL and its base64 SHA-512 checksum. The binary is downloaded, verified and
// swapped in place with go-update.
package updater
