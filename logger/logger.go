package logger

import (
	"Keyhound/constants"
	"Keyhound/utils"
	"fmt"
	"log"
	"strings"
	"time"
)

var (
	lastLogType   string
	lineCounter   int64
	currentHeader string
)

const (
	HeaderSearch = " UPTIME  |   KEYS   | RATE/s | µs/CHK | QUEUE |  RAM  | HITS"
)

func PrintSeparator(logType string) {
	separator := strings.Repeat("─", constants.LineLength)
	fmt.Printf("%s%s\n", logType, separator)
}

func Banner() {
	fmt.Printf(`

  _  __          _                           _
 | |/ /___ _   _| |__   ___  _   _ _ __   __| |   grid search over
 | ' // _ \ | | | '_ \ / _ \| | | | '_ \ / _' |   the secp256k1
 | . \  __/ |_| | | | | (_) | |_| | | | | (_| |   keyspace
 |_|\_\___|\__, |_| |_|\___/ \__,_|_| |_|\__,_|
           |___/

`)
}

// LogError standardizes error logging with line wrapping
func LogError(logger *log.Logger, prefix string, err error, context string) {
	var message string
	if context != "" {
		message = fmt.Sprintf("%s %s: %v", prefix, context, err)
	} else {
		message = fmt.Sprintf("%s Error: %v", prefix, err)
	}

	maxLen := constants.LineLength - len(prefix) - 1

	if len(message) > constants.LineLength {
		lines := utils.SplitMessage(message, maxLen, prefix)
		for _, line := range lines {
			logger.Print(line)
		}
	} else {
		logger.Print(message)
	}
}

// LogDebug standardizes debug logging
func LogDebug(logger *log.Logger, prefix string, format string, args ...interface{}) {
	if constants.DebugMode && format != "" {
		// Use fmt.Print instead of logger.Printf to avoid timestamp
		fmt.Printf("%s%s\n", prefix, fmt.Sprintf(format, args...))
	}
}

// LogStatus standardizes status/info logging with line wrapping
func LogStatus(logger *log.Logger, prefix string, message string, args ...interface{}) {
	if logger == nil {
		logger = log.Default()
	}

	msg := fmt.Sprintf(message, args...)
	fullMessage := fmt.Sprintf("%s%s", prefix, msg)

	maxLen := constants.LineLength - len(prefix) - 1

	if len(fullMessage) > constants.LineLength {
		lines := utils.SplitMessage(fullMessage, maxLen, prefix)
		for _, line := range lines {
			logger.Print(line)
		}
	} else {
		logger.Print(fullMessage)
	}
}

// LogHeaderStatus prints a separator before the status line
func LogHeaderStatus(logger *log.Logger,
	prefix string,
	message string,
	args ...interface{}) {

	if logger == nil {
		logger = log.Default()
	}
	msg := fmt.Sprintf(message, args...)
	maxLen := constants.LineLength - len(prefix) - 1
	if len(msg) > maxLen {
		msg = msg[:maxLen-1]
	}
	PrintSeparator(prefix)
	logger.Printf("%s%s", prefix, msg)
}

func logWithTypeChange(logger *log.Logger, logType string, message string) {
	lineCounter++

	if lastLogType != logType || lineCounter%42 == 0 {
		var header string
		switch logType {
		case constants.LogStats:
			header = HeaderSearch
		}

		if header != "" && header != currentHeader {
			PrintSeparator(logType)
			logger.Printf("%s%s", logType, header)
			PrintSeparator(logType)
			currentHeader = header
		}

		if lastLogType != logType {
			lineCounter = 0
		}
	}

	logger.Print(message)
	lastLogType = logType

	if lineCounter >= 42 {
		lineCounter = 0
	}
}

// LogSearchStats emits one periodic search summary line under the
// HeaderSearch columns.
func LogSearchStats(
	logger *log.Logger,
	uptime time.Duration,
	checkedKeys int64,
	keysPerSecond float64,
	avgContainsMicros float64,
	queueDepth int,
	memGB float64,
	hits int64,
) {
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	message := fmt.Sprintf("%s%02d:%02d:%02d | %8s | %6.1fk | %6.1f | %5d | %4.1fG | %d",
		constants.LogStats,
		hours, minutes, seconds,
		utils.FormatWithCommas(int(checkedKeys)),
		keysPerSecond/1000,
		avgContainsMicros,
		queueDepth,
		memGB,
		hits)

	logWithTypeChange(logger, constants.LogStats, message)
}
