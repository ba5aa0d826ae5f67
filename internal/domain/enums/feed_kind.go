package enums

type FeedKind string

const (
	FeedKindDiscovery    FeedKind = "discovery"
	FeedKindSecondChance FeedKind = "second_chance"
)
