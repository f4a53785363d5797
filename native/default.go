package native

import (
	"sync"

	"github.com/kbukum/pinch/logger"
)

var (
	defaultOnce    sync.Once
	defaultFetcher Fetcher
)

// Default returns the process-wide backend, built from a zero Config on
// first use. A zero Config always validates, so construction cannot fail
// in practice; if it does, the returned Fetcher reports the error on
// every call.
func Default() Fetcher {
	defaultOnce.Do(func() {
		h, err := NewHTTP(Config{})
		if err != nil {
			logger.Error("native: default backend unavailable", logger.ErrorFields("new_http", err))
			defaultFetcher = FetcherFunc(func(_ string, _ Options, cb Callback) {
				go cb(err, nil)
			})
			return
		}
		defaultFetcher = h
	})
	return defaultFetcher
}
