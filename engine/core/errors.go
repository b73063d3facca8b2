package core

import (
	"errors"
)

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrInvalidPath        = errors.New("invalid asset path")
	ErrNoLoader           = errors.New("no loader registered for resource type")
	ErrLoaderExists       = errors.New("loader already registered for resource type")
	ErrBundleNotFound     = errors.New("bundle not found in manifest")
	ErrBundleHashMismatch = errors.New("bundle hash mismatch")
	ErrDependencyCycle    = errors.New("bundle dependency cycle")
	ErrStoreClosed        = errors.New("store closed")
	ErrNoJobSystem        = errors.New("no job system configured")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknown            = errors.New("unknown")
)
