package core

import (
	"github.com/pkg/errors"
)

var (
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrPlatformStartup = errors.New("platform failed to start")
	ErrShaderMissing   = errors.New("shader blob not found")
	ErrUnknown         = errors.New("unknown")
)
