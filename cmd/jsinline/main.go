package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/mna/jsinline/internal/maincmd"
)

var (
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
