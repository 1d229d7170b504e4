// Package guard flips the runtime into test mode when imported for side
// effects, so binaries that check app.InTestMode skip their startup path.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SEKOLAH_TEST_MODE") == "" {
			_ = os.Setenv("SEKOLAH_TEST_MODE", "1")
		}
	})
}
