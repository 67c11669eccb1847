package publisher

import (
	"context"
	"encoding"
	"fmt"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// Forwards messages to a Redis channel. Publishing is best effort,
// a failed publish is logged and dropped.
type Publisher[In encoding.BinaryMarshaler] struct {
	*task.Task

	client      *redis.Client
	channelName string
	input       chan In
}

func NewPublisher[In encoding.BinaryMarshaler](config *config.Config, name string) (self *Publisher[In]) {
	self = new(Publisher[In])

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *Publisher[In]) WithInputChannel(v chan In) *Publisher[In] {
	self.input = v
	return self
}

func (self *Publisher[In]) WithChannelName(v string) *Publisher[In] {
	self.channelName = v
	return self
}

func (self *Publisher[In]) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *Publisher[In]) connect() (err error) {
	self.client = redis.NewClient(&redis.Options{
		ClientName:   fmt.Sprintf("arena/%s", self.Name),
		Addr:         fmt.Sprintf("%s:%d", self.Config.Redis.Host, self.Config.Redis.Port),
		Password:     self.Config.Redis.Password,
		Username:     self.Config.Redis.User,
		DB:           self.Config.Redis.DB,
		MinIdleConns: self.Config.Redis.MinIdleConns,
		MaxIdleConns: self.Config.Redis.MaxIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), self.Config.Redis.ConnectTimeout)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}
	return
}

func (self *Publisher[In]) run() (err error) {
	for payload := range self.input {
		err = self.client.Publish(self.Ctx, self.channelName, payload).Err()
		if err != nil {
			self.Log.WithError(err).Error("Failed to publish message")
		}
	}
	return nil
}
