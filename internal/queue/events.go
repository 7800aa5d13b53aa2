package queue

import (
	"context"
	"encoding/json"
	"log"
)

// publishEvent pushes a notification to the broadcast channel after a
// successful commit. Delivery is best effort: clients poll for state,
// the channel only shortens the wait.
func (s *Service) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}

	body := map[string]any{
		"type":    eventType,
		"payload": payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("stream-queue-service: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("stream-queue-service: publish event: %v", err)
	}
}
