package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/vxlib/vxrefl/internal/codegen/common"
)

type Version struct {
	out io.Writer `kong:"-"`
}

// Run is called by Kong when the version command is executed.
func (v *Version) Run() error {
	version, err := common.GetVersion()
	if err != nil {
		return err
	}
	out := v.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintf(out, "vxrefl %s\n", version)
	return err
}
