package app

import (
	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/events"
)

// Lifecycle topics published on the application's aggregator.
const (
	TopicStarting            events.Topic = "app.starting"
	TopicPluginsInstalled    events.Topic = "app.plugins.installed"
	TopicResourcesRegistered events.Topic = "app.resources.registered"
	TopicStarted             events.Topic = "app.started"
	TopicRootAttached        events.Topic = "app.root.attached"
)

func (a *Application) publish(topic events.Topic, payload any) {
	if _, err := a.Publish(topic, payload); err != nil {
		a.logger.Warn("publish failed", zap.Stringer("topic", topic), zap.Error(err))
	}
}
