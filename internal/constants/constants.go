// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// DefaultModel is the clear-sky model used when none is configured
const DefaultModel = "ineichen-perez"

// DefaultWindowLength is the detection window, in samples, used when none is configured
const DefaultWindowLength = 10
