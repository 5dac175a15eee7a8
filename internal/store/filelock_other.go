//go:build !unix

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Without flock only writers inside this process are serialised.
var processLock sync.RWMutex

func lockFile(path string, exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if exclusive {
		processLock.Lock()
		return processLock.Unlock, nil
	}
	processLock.RLock()
	return processLock.RUnlock, nil
}
