package strategies

import (
	"github.com/joeycumines/go-wipecore/devicetypes"
	"github.com/joeycumines/go-wipecore/wipeerrors"
)

// Select is the exhaustive drive-class dispatch table. RAID members
// default to requiring force and not touching metadata regions; callers
// needing the OverwriteMetadata variant should construct a RAIDStrategy
// directly instead of going through Select.
func Select(dev devicetypes.Device, force bool) (Strategy, error) {
	switch dev.Class {
	case devicetypes.DriveClassSMR:
		return SMRStrategy{}, nil
	case devicetypes.DriveClassOptane:
		return OptaneStrategy{}, nil
	case devicetypes.DriveClassHybridSSHD:
		return HybridSSHDStrategy{}, nil
	case devicetypes.DriveClassEMMC, devicetypes.DriveClassUFS:
		return EmbeddedStrategy{}, nil
	case devicetypes.DriveClassNVMe:
		return NVMeStrategy{}, nil
	case devicetypes.DriveClassSSD:
		return SSDStrategy{}, nil
	case devicetypes.DriveClassHDD:
		return HDDStrategy{}, nil
	case devicetypes.DriveClassRAID:
		return RAIDStrategy{Force: force}, nil
	case devicetypes.DriveClassUSB, devicetypes.DriveClassUnknown:
		return UnsupportedStrategy{}, nil
	default:
		return nil, &wipeerrors.Unsupported{Reason: "strategies: unrecognized drive class " + string(dev.Class)}
	}
}
