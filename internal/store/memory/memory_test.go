package memory_test

import (
	"testing"

	"lessonpath-backend-go/internal/store"
	"lessonpath-backend-go/internal/store/memory"
	"lessonpath-backend-go/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}
