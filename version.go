// Package droid provides the version information for droid-go.
package droid

// Version is the current version of droid-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
