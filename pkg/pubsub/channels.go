package pubsub

import "fmt"

// Channel naming conventions for the spawn bridge.
const (
	// Engagement source -> spawn-service
	ChannelEngagementToSpawner = "engagement:room:%s:to_spawner"

	// spawn-service -> renderers and other observers
	ChannelSpawnToRenderer = "spawn:room:%s:to_renderer"
)

// Event types for engagement -> spawner communication.
const (
	EventConnect = "connect"
	EventLike    = "like"
	EventGift    = "gift"
)

// Event types for spawner -> renderer communication.
const (
	EventSpawnBatch = "spawn_batch"
)

// EngagementChannel returns the channel that carries engagement events for a streamer.
func EngagementChannel(username string) string {
	return fmt.Sprintf(ChannelEngagementToSpawner, username)
}

// SpawnChannel returns the channel that mirrors spawn batches for a streamer.
func SpawnChannel(username string) string {
	return fmt.Sprintf(ChannelSpawnToRenderer, username)
}

// Event payloads for engagement -> spawner.

// ConnectPayload is sent when the ingestion client has joined the live room.
type ConnectPayload struct {
	StreamerID string `json:"streamer_id"`
	RoomID     string `json:"room_id"`
}

// LikePayload carries one batch of likes.
type LikePayload struct {
	Count int64 `json:"count"`
}

// GiftPayload carries one gift, possibly repeated ComboCount times.
type GiftPayload struct {
	GiftName   string `json:"gift_name"`
	SenderID   string `json:"sender_id"`
	ComboCount int    `json:"combo_count"`
}
