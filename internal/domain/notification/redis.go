package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "roombooking:notifications"

type envelope struct {
	Origin string          `json:"origin"`
	UserID int64           `json:"user_id,omitempty"`
	Group  string          `json:"group,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// RedisFanout delivers locally and publishes every event so the other API
// instances can deliver it to connections they hold.
type RedisFanout struct {
	rdb     *redis.Client
	local   *Hub
	channel string
	origin  string
	log     *zap.Logger
}

func NewRedisFanout(rdb *redis.Client, local *Hub, channel string, log *zap.Logger) *RedisFanout {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFanout{rdb: rdb, local: local, channel: channel, origin: uuid.NewString(), log: log}
}

func (f *RedisFanout) Join(userID int64, group string)  { f.local.Join(userID, group) }
func (f *RedisFanout) Leave(userID int64, group string) { f.local.Leave(userID, group) }

func (f *RedisFanout) SendToUser(ctx context.Context, userID int64, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	delivered := f.local.deliverToUser(userID, data)
	published := f.publish(ctx, envelope{Origin: f.origin, UserID: userID, Data: data})
	return delivered || published
}

func (f *RedisFanout) SendToGroup(ctx context.Context, group string, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		return 0
	}
	n := f.local.deliverToGroup(group, data)
	f.publish(ctx, envelope{Origin: f.origin, Group: group, Data: data})
	return n
}

// publish is bounded by the caller's ctx and by writeWait, whichever ends first.
func (f *RedisFanout) publish(ctx context.Context, env envelope) bool {
	payload, err := json.Marshal(env)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := f.rdb.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.log.Warn("redis publish failed", zap.String("channel", f.channel), zap.Error(err))
		return false
	}
	return true
}

// Run forwards events published by other instances into the local hub
// until ctx is cancelled.
func (f *RedisFanout) Run(ctx context.Context) error {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	f.log.Info("redis fan-out subscribed", zap.String("channel", f.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.dispatch([]byte(msg.Payload))
		}
	}
}

func (f *RedisFanout) dispatch(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		f.log.Warn("malformed fan-out payload", zap.Error(err))
		return
	}
	if env.Origin == f.origin {
		return
	}
	switch {
	case env.UserID > 0:
		f.local.deliverToUser(env.UserID, env.Data)
	case env.Group != "":
		f.local.deliverToGroup(env.Group, env.Data)
	}
}
