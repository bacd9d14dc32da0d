package kafka

import "fmt"

// TopicPrefix namespaces every topic produced by this backend.
const TopicPrefix = "ordura"

// Topic builds a fully qualified topic name from an aggregate and an action,
// e.g. Topic("user", "registered") -> "ordura.user.registered".
func Topic(aggregate, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, aggregate, action)
}
