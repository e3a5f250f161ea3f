//go:build !unix

package platform

// Elevation on Windows always goes through an explicit helper.
func isElevated() bool {
	return false
}
