package domain

// EngagementEvent is an audience interaction delivered by the ingestion adapter.
// It is one of ConnectEvent, LikeEvent or GiftEvent.
type EngagementEvent interface {
	engagementEvent()
}

// ConnectEvent reports that the ingestion client joined the live room.
type ConnectEvent struct {
	StreamerID string
	RoomID     string
}

// LikeEvent carries a batch of likes.
type LikeEvent struct {
	Count int64
}

// GiftEvent carries a gift sent ComboCount times by one viewer.
type GiftEvent struct {
	GiftName   string
	SenderID   string
	ComboCount int
}

func (ConnectEvent) engagementEvent() {}
func (LikeEvent) engagementEvent()    {}
func (GiftEvent) engagementEvent()    {}
