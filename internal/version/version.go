// Package version carries build identification reported by the CLI and
// advertised to transport clients at connection time.
package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info is the version payload shared with transport clients.
type Info struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// Current returns the build's version info.
func Current() Info {
	return Info{Package: "richat-plugin", Version: Version, Commit: GitCommit}
}

// String renders "richat-plugin-<version>", the name reported to the host.
func (i Info) String() string {
	return fmt.Sprintf("%s-%s", i.Package, i.Version)
}
