package kafka

// Topic definitions for pipeline event streaming
const (
	// TopicRollupsReconciled carries one summary message per completed
	// aggregation pass, keyed by run id
	TopicRollupsReconciled = "rollups.reconciled"
)
