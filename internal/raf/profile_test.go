package raf

import (
	"strings"
	"testing"
)

func TestDefaultProfileArgs(t *testing.T) {
	got := strings.Join(DefaultProfile().Args("/photos/DSCF0001.RAF"), " ")
	want := "-c -T -t 0 -w -b 1.2 -W -q 3 -o 1 -H 2 -g 2.222 4.5 -n 100 /photos/DSCF0001.RAF"

	if got != want {
		t.Errorf("Args() = %q, want %q", got, want)
	}
}

func TestProfileArgsOmitsNeutralFlags(t *testing.T) {
	p := Profile{Brightness: 1.0, DemosaicQuality: 0, OutputColor: 1, HighlightMode: 0}
	got := strings.Join(p.Args("a.RAF"), " ")

	if strings.Contains(got, "-b") {
		t.Errorf("neutral brightness rendered a -b flag: %q", got)
	}
	if strings.Contains(got, "-w") {
		t.Errorf("camera WB off rendered a -w flag: %q", got)
	}
	if strings.Contains(got, "-n") {
		t.Errorf("disabled denoise rendered a -n flag: %q", got)
	}
	if !strings.HasSuffix(got, " a.RAF") {
		t.Errorf("path not last: %q", got)
	}
}
