package core

import (
	"fmt"
	"sync"
)

var (
	owners      []interface{}
	ownersMutex sync.Mutex
)

// IdentifierAquireNewID hands out the lowest free id and records owner against it.
func IdentifierAquireNewID(owner interface{}) uint32 {
	ownersMutex.Lock()
	defer ownersMutex.Unlock()

	if len(owners) == 0 {
		owners = make([]interface{}, 100)
	}
	length := uint32(len(owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if owners[i] == nil {
			owners[i] = owner
			return i
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	// This means the id will be length - 1
	owners = append(owners, owner)
	length = uint32(len(owners))
	return length - 1
}

func IdentifierReleaseID(id uint32) error {
	ownersMutex.Lock()
	defer ownersMutex.Unlock()

	if len(owners) == 0 {
		return fmt.Errorf("identifier release called before initialization, id '%d' was never acquired", id)
	}

	length := uint32(len(owners))
	if id >= length {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, length)
	}

	// Just zero out the entry, making it available for use.
	owners[id] = nil
	return nil
}

func IdentifierOwner(id uint32) interface{} {
	ownersMutex.Lock()
	defer ownersMutex.Unlock()

	if id >= uint32(len(owners)) {
		return nil
	}
	return owners[id]
}
