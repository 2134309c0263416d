// Package guard forces test mode for packages that cannot import the root
// testing package.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BISTRO_TEST_MODE") == "" {
			_ = os.Setenv("BISTRO_TEST_MODE", "1")
		}
	})
}
