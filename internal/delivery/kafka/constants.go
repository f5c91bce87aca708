package kafka

const (
	TopicDealViewed = "deal.viewed"
)
