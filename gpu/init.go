package gpu

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"Keyhound/logger"
	"log"
	"os/exec"
	"strconv"
	"strings"

	cuda "github.com/ingonyama-zk/icicle/wrappers/golang/cuda_runtime"
)

// pointBytes is the device footprint of one expanded grid entry: the
// uncompressed point, doubled for kernel scratch.
const pointBytes = 2 * 65

// DeviceInfo describes the CUDA device that could back the batched grid
// expansion.
type DeviceInfo struct {
	Available   bool
	Name        string
	VRAMGB      int64
	MaxGridBits int // largest grid exponent the device memory can expand
}

// ProbeDevice checks for a usable CUDA device and works out how large a
// grid its memory could hold. No device means every grid expands on the
// host.
func ProbeDevice() DeviceInfo {
	info := DeviceInfo{}

	count, err := cuda.GetDeviceCount()
	if err != cuda.CudaSuccess || count == 0 {
		return info
	}

	info.Available = true
	info.Name, info.VRAMGB = queryDeviceName()
	info.MaxGridBits = maxGridBitsForVRAM(info.VRAMGB)
	return info
}

// queryDeviceName asks the driver for a display name and total memory. The
// probe already proved a device exists; failures here only cost the label.
func queryDeviceName() (string, int64) {
	output, err := exec.Command("nvidia-smi",
		"--query-gpu=name,memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return "CUDA device", 0
	}

	fields := strings.Split(strings.TrimSpace(string(output)), ", ")
	if len(fields) < 2 {
		return "CUDA device", 0
	}

	mib, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return fields[0], 0
	}
	return fields[0], mib / 1024
}

// maxGridBitsForVRAM caps the grid exponent by the number of expanded
// points the device memory can hold at once. Unknown memory defers to the
// global grid cap.
func maxGridBitsForVRAM(vramGB int64) int {
	if vramGB <= 0 {
		return constants.MaxGridNumBits
	}

	budget := vramGB * (1 << 30) / pointBytes
	bits := 0
	for bits < constants.MaxGridNumBits && (int64(1)<<(bits+1)) <= budget {
		bits++
	}
	return bits
}

// NewKernel picks the grid expansion backend for the batched producer. A
// device kernel must implement the same generator.Kernel contract; until
// one is wired in, grids expand on the host kernel either way and the probe
// decides only whether the configured grid would even fit the device.
func NewKernel(gridNumBits int, localLog *log.Logger) generator.Kernel {
	info := ProbeDevice()

	switch {
	case !info.Available:
		logger.LogStatus(localLog, constants.LogVideo,
			"No CUDA device available, expanding grids on the host")
	case gridNumBits > info.MaxGridBits:
		logger.LogStatus(localLog, constants.LogVideo,
			"%s (%dGB) holds at most 2^%d keys per grid, expanding on the host",
			info.Name, info.VRAMGB, info.MaxGridBits)
	default:
		logger.LogStatus(localLog, constants.LogVideo,
			"%s (%dGB) fits 2^%d-key grids, batched dispatch ready",
			info.Name, info.VRAMGB, gridNumBits)
	}

	return NewCPUKernel()
}
