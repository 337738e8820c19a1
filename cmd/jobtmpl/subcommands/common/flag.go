package common

import (
	"errors"
	"path"
	"path/filepath"

	"github.com/opst/jobtemplate/pkg/utils"
)

// EnvFileName is the name of jobenv file searched from the working directory upward.
const EnvFileName = "jobenv"

type CommonFlags struct {
	Env string `flag:"env" metavar:"path/to/jobenv" help:"path to jobenv file"`
}

// Flags detects default values of common flags.
//
// Env is the nearest jobenv file found in from or its ancestors.
// When no jobenv is found, it is "jobenv" in from.
func Flags(from string) (CommonFlags, error) {
	if _from, err := filepath.Abs(from); err == nil {
		from = _from
	}

	found, err := utils.SearchFilePathtoUpward(from, EnvFileName)
	if err != nil {
		if !errors.Is(err, utils.ErrSearchFile) {
			return CommonFlags{}, err
		}
		return CommonFlags{Env: path.Join(from, EnvFileName)}, nil
	}

	return CommonFlags{Env: *found}, nil
}
