package orders

const (
	TopicOrderCompleted  = "order.completed"
	TopicAssetDownloaded = "asset.downloaded"
)

// Partition key = order_id, so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
