package common

import "github.com/pkg/errors"

var ErrUnsupported = errors.New("unsupported operation")
