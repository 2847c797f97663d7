package page

import (
	"context"

	"camclassify/processing/media"

	"go.uber.org/zap"
)

// Enumerator lists video inputs, making sure camera access was asked for
// first.
type Enumerator struct {
	platform media.Platform
	logger   *zap.Logger
}

func NewEnumerator(platform media.Platform, logger *zap.Logger) *Enumerator {
	return &Enumerator{platform: platform, logger: logger}
}

// EnsurePermission opens and immediately stops a throwaway stream unless
// access is already granted. A failing permission query is not an error.
func (e *Enumerator) EnsurePermission(ctx context.Context) error {
	state, err := e.platform.PermissionState(ctx)
	if err == nil && state == media.PermissionGranted {
		return nil
	}
	if err != nil {
		e.logger.Debug("permission query failed", zap.Error(err))
	}

	probe, err := e.platform.OpenProbe(ctx)
	if err != nil {
		return err
	}
	media.StopTracks(probe)

	return nil
}

func (e *Enumerator) ListDevices(ctx context.Context) ([]media.Device, error) {
	devices, err := e.platform.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return media.FilterKind(devices, media.KindVideoInput), nil
}
