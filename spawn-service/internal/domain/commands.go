package domain

import (
	"encoding/json"
	"fmt"
)

// CommandKind is the "event" discriminator on the renderer wire format.
type CommandKind string

const (
	KindLikeCount  CommandKind = "like_count"
	KindSpawnEnemy CommandKind = "spawn_enemy"
	KindSpawnBoss  CommandKind = "spawn_boss"
	KindSpawnItem  CommandKind = "spawn_item"
)

// SenderChat attributes a spawn to accumulated chat likes rather than a single viewer.
const SenderChat = "chat"

// SpawnCommand is one instruction for the renderer.
//
// Total is only meaningful for KindLikeCount. Name holds the monster name for
// enemies and bosses and the item tier for items.
type SpawnCommand struct {
	Kind   CommandKind
	Total  int64
	Name   string
	Sender string
}

func NewLikeCountUpdate(total int64) SpawnCommand {
	return SpawnCommand{Kind: KindLikeCount, Total: total, Sender: SenderChat}
}

func NewSpawnEnemy(name, sender string) SpawnCommand {
	return SpawnCommand{Kind: KindSpawnEnemy, Name: name, Sender: sender}
}

func NewSpawnBoss(name, sender string) SpawnCommand {
	return SpawnCommand{Kind: KindSpawnBoss, Name: name, Sender: sender}
}

func NewSpawnItem(tier, sender string) SpawnCommand {
	return SpawnCommand{Kind: KindSpawnItem, Name: tier, Sender: sender}
}

// Wire layouts. Field order here is the field order on the wire.

type likeCountWire struct {
	Event  CommandKind `json:"event"`
	Data   int64       `json:"data"`
	Sender string      `json:"sender"`
}

type monsterWire struct {
	Event   CommandKind `json:"event"`
	Monster string      `json:"monster"`
	Sender  string      `json:"sender"`
}

type itemWire struct {
	Event  CommandKind `json:"event"`
	Item   string      `json:"item"`
	Sender string      `json:"sender"`
}

// MarshalJSON encodes the command in its fixed per-kind layout.
func (c SpawnCommand) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindLikeCount:
		return json.Marshal(likeCountWire{Event: c.Kind, Data: c.Total, Sender: c.Sender})
	case KindSpawnEnemy, KindSpawnBoss:
		return json.Marshal(monsterWire{Event: c.Kind, Monster: c.Name, Sender: c.Sender})
	case KindSpawnItem:
		return json.Marshal(itemWire{Event: c.Kind, Item: c.Name, Sender: c.Sender})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Kind)
	}
}

// UnmarshalJSON decodes any of the four wire layouts.
func (c *SpawnCommand) UnmarshalJSON(data []byte) error {
	var raw struct {
		Event   CommandKind `json:"event"`
		Data    int64       `json:"data"`
		Monster string      `json:"monster"`
		Item    string      `json:"item"`
		Sender  string      `json:"sender"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Event {
	case KindLikeCount:
		*c = SpawnCommand{Kind: raw.Event, Total: raw.Data, Sender: raw.Sender}
	case KindSpawnEnemy, KindSpawnBoss:
		*c = SpawnCommand{Kind: raw.Event, Name: raw.Monster, Sender: raw.Sender}
	case KindSpawnItem:
		*c = SpawnCommand{Kind: raw.Event, Name: raw.Item, Sender: raw.Sender}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, raw.Event)
	}
	return nil
}

// EncodeBatch serializes one broadcast tick as a JSON array.
func EncodeBatch(cmds []SpawnCommand) ([]byte, error) {
	if cmds == nil {
		cmds = []SpawnCommand{}
	}
	data, err := json.Marshal(cmds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	return data, nil
}

// DecodeBatch parses a batch message as sent to renderers.
func DecodeBatch(data []byte) ([]SpawnCommand, error) {
	var cmds []SpawnCommand
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	return cmds, nil
}
