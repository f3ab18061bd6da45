package protect

import (
	"context"

	"camera-privacy-buttons/internal/logger"
)

// DryRun is a Controller that logs every call and reports success. It
// stands in for the real session on a bench without camera access, the
// same way the GPIO layer can run on fakes.
type DryRun struct {
	// KnownCameras is what Cameras() returns. Callers running dry
	// populate it from the config so startup validation passes.
	KnownCameras []CameraInfo
}

func (d *DryRun) SetPrivacy(_ context.Context, camera string, enabled bool) error {
	logger.Infof("[dry-run] set privacy %v for camera %s", enabled, camera)
	return nil
}

func (d *DryRun) SetLed(_ context.Context, camera string, on bool) error {
	logger.Infof("[dry-run] set led %v for camera %s", on, camera)
	return nil
}

func (d *DryRun) SetIr(_ context.Context, camera string, mode IrMode) error {
	logger.Infof("[dry-run] set ir %s for camera %s", mode, camera)
	return nil
}

func (d *DryRun) SetMic(_ context.Context, camera string, on bool) error {
	logger.Infof("[dry-run] set mic %v for camera %s", on, camera)
	return nil
}

func (d *DryRun) Cameras(_ context.Context) ([]CameraInfo, error) {
	return d.KnownCameras, nil
}
