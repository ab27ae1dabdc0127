package runtime

import (
	"Keyhound/constants"
	"Keyhound/logger"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Shutdown runs the cooperative stop sequence exactly once:
//
//  1. raise the stop flag (the stats loop exits on it)
//  2. wait for producers (they finish the batch in flight), then close
//     file sources
//  3. let consumers drain, bounded by awaitQueueEmpty
//  4. close the index
func (f *Finder) Shutdown() {
	f.shutdownOnce.Do(func() {
		f.stop.Stop()

		f.producersWG.Wait()
		f.closeSources()

		f.consumer.AwaitTermination(f.cfg.AwaitQueueEmpty)

		if err := f.index.Close(); err != nil {
			logger.LogError(f.log, constants.LogError, err, "closing address index")
		}

		logger.LogStatus(f.log, constants.LogWarn, "System Shutdown Complete.")
	})
}

// AwaitShutdown installs the signal handler and returns a channel that is
// closed after the full shutdown sequence ran, triggered by SIGTERM/SIGINT/SIGQUIT
// or by all producers finishing on their own (runOnce, exhausted file).
func AwaitShutdown(f *Finder, localLog *log.Logger) <-chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			signal.Stop(sigChan)
			fmt.Print("\r\033[K")
			logger.LogHeaderStatus(localLog, constants.LogWarn,
				"Received signal %v, initiating shutdown...", sig)
			logger.PrintSeparator(constants.LogWarn)
		case <-f.ProducersDone():
			logger.LogHeaderStatus(localLog, constants.LogInfo,
				"All producers finished, initiating shutdown...")
		}

		f.Shutdown()
		close(done)
	}()

	return done
}
