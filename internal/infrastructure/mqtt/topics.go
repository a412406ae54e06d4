package mqtt

// Topic layout for the taskforge namespace:
//
//	taskforge/system/status          — online/offline status (retained)
//	taskforge/events/tasks           — task lifecycle events
//	taskforge/events/notifications   — notification fan-out events
const (
	topicPrefix = "taskforge"

	// TopicSystemStatus carries online/offline status messages.
	TopicSystemStatus = topicPrefix + "/system/status"

	// TopicTaskEvents carries task lifecycle events for external integrations.
	TopicTaskEvents = topicPrefix + "/events/tasks"

	// TopicNotificationEvents carries notification events.
	TopicNotificationEvents = topicPrefix + "/events/notifications"
)
