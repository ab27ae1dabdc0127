package utils

import (
	"Keyhound/constants"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/mem"
)

func BoolToEnabledDisabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FormatWithCommas renders 1234567 as "1,234,567".
func FormatWithCommas(n int) string {
	in := strconv.Itoa(n)
	numOfDigits := len(in)
	if n < 0 {
		numOfDigits--
	}
	numOfCommas := (numOfDigits - 1) / 3

	if numOfCommas == 0 {
		return in
	}

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}
		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}

// SplitMessage breaks a long log message into prefix-aligned lines.
func SplitMessage(message string, maxLen int, prefix string) []string {
	var lines []string
	remaining := message

	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			lines = append(lines, remaining)
			break
		}

		cut := maxLen
		for cut > 0 && remaining[cut] != ' ' {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}

		lines = append(lines, remaining[:cut])
		remaining = remaining[cut:]
		for len(remaining) > 0 && remaining[0] == ' ' {
			remaining = remaining[1:]
		}
		if len(remaining) > 0 {
			remaining = prefix + remaining
		}
	}

	return lines
}

// UsedMemoryGB reports system RAM in use, for the stats line.
func UsedMemoryGB() float64 {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return float64(v.Used) / (1024 * 1024 * 1024)
}

// TotalMemoryGB reports total system RAM.
func TotalMemoryGB() float64 {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return float64(v.Total) / (1024 * 1024 * 1024)
}

var foundMutex sync.Mutex

// WriteFound appends one hit record to the found-keys file. The log already
// carries the same data; this file is the grep-free copy.
func WriteFound(line string) error {
	foundMutex.Lock()
	defer foundMutex.Unlock()

	f, err := os.OpenFile(constants.FoundKeysPath,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s] %s\n", time.Now().Format(time.RFC3339), line)
	return err
}
