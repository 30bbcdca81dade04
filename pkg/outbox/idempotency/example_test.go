package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func ExampleManager_Guard() {
	manager, _ := NewManager(newMemStore(), 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	for range 2 {
		err := manager.Guard(context.Background(), "scan-analytics", eventID, func(context.Context) error {
			fmt.Println("writing scan fact")
			return nil
		})
		if err != nil {
			fmt.Println(err)
		}
	}
	// Output:
	// writing scan fact
	// event already processed
}
