// Package buildinfo exposes the version stamped into the binary at link time
// through github.com/prometheus/common/version.
package buildinfo

import (
	"fmt"

	"github.com/prometheus/common/version"
)

const Name = "powersod"

const Graffiti = "                                          _ \n" +
	" _ __   _____      _____ _ __ ___  ___   __| |\n" +
	"| '_ \\ / _ \\ \\ /\\ / / _ \\ '__/ __|/ _ \\ / _` |\n" +
	"| |_) | (_) \\ V  V /  __/ |  \\__ \\ (_) | (_| |\n" +
	"| .__/ \\___/ \\_/\\_/ \\___|_|  |___/\\___/ \\__,_|\n" +
	"|_|\n\n"

type buildinfo struct{}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Tag() string {
	if version.Version == "" {
		return "v0.0.0"
	}
	return version.Version
}

func (buildinfo) Time() string {
	return version.BuildDate
}

// String is the multi-line banner printed on startup.
func (buildinfo) String() string {
	return version.Print(Name)
}

// Short is the one-line form used in logs.
func (b buildinfo) Short() string {
	return fmt.Sprintf("%s %s", b.Name(), version.Info())
}

var Info buildinfo
