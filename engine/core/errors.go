package core

import (
	"github.com/pkg/errors"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoLoader      = errors.New("no loader registered for asset type")
	ErrShutdown      = errors.New("engine is shutting down")
)
