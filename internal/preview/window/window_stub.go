//go:build !cgo

package window

import (
	"context"
	"errors"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

var errNoCgo = errors.New("window preview requires cgo (build with CGO_ENABLED=1)")

type Driver struct{}

func New(layout.Layout, string) (*Driver, error) { return nil, errNoCgo }

func (*Driver) Write([]byte) error { return errNoCgo }

func (*Driver) Close() error { return nil }

func (*Driver) Run(context.Context) error { return errNoCgo }
