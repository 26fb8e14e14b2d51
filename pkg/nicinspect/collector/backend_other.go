//go:build !linux && !darwin

package collector

import (
	"github.com/pkg/errors"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
)

func NewPlatformBackend(_ Options) (PlatformBackend, error) {
	return nil, errors.Wrap(errdefs.ErrNoSocket, "interface queries are not implemented on this platform")
}
