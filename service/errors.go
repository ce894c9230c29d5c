package service

import (
	"errors"
	"fmt"

	"github.com/hupe1980/schoolmate/core"
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidArgument, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
