package media

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const KindMetadata = "metadata"

// Device describes one capture device as the platform reports it.
type Device struct {
	ID    string
	Label string
	Kind  string
}

// FilterKind keeps the devices of the given kind, preserving order.
func FilterKind(devices []Device, kind string) []Device {
	var out []Device
	for _, d := range devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// listV4L2Devices reads /dev/video* nodes and labels them from sysfs. Nodes
// whose sysfs index is not 0 are metadata nodes of the same camera.
func listV4L2Devices(devDir, sysDir string) ([]Device, error) {
	paths, err := filepath.Glob(filepath.Join(devDir, "video*"))
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return videoNumber(paths[i]) < videoNumber(paths[j])
	})

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if videoNumber(p) < 0 {
			continue
		}

		d := Device{ID: p, Label: name, Kind: KindVideoInput}

		if label := readSysAttr(sysDir, name, "name"); label != "" {
			d.Label = label
		}
		if idx := readSysAttr(sysDir, name, "index"); idx != "" && idx != "0" {
			d.Kind = KindMetadata
		}

		devices = append(devices, d)
	}

	return devices, nil
}

func videoNumber(path string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "video"))
	if err != nil {
		return -1
	}
	return n
}

func readSysAttr(sysDir, node, attr string) string {
	if sysDir == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Join(sysDir, node, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// fileDevices exposes existing video files as cameras.
func fileDevices(paths []string) []Device {
	var devices []Device
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		devices = append(devices, Device{
			ID:    fileDevicePrefix + p,
			Label: filepath.Base(p),
			Kind:  KindVideoInput,
		})
	}
	return devices
}
