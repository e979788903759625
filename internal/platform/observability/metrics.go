package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_messages_ingested_total",
		Help: "The total number of ingested group messages",
	}, []string{"chat"})

	MessagesClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_messages_classified_total",
		Help: "The total number of classified messages by verdict reason",
	}, []string{"reason"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taxi_queue_depth",
		Help: "Current number of messages waiting in the processing queue",
	})

	QueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxi_queue_dropped_total",
		Help: "Total number of messages dropped because the queue was full",
	})

	ClassifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxi_classify_duration_seconds",
		Help:    "Duration of a full classification pass over one message",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	OrdersPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_orders_published_total",
		Help: "Total number of taxi orders forwarded to the target chat",
	}, []string{"status"})

	OrdersByRegion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_orders_by_region_total",
		Help: "Total number of published orders by region hashtag",
	}, []string{"region"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_rate_limited_total",
		Help: "Total number of actions skipped by rate limiting",
	}, []string{"scope"})

	ActionsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_actions_total",
		Help: "Total number of recorded account actions",
	}, []string{"type", "status"})

	DiscoverySearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_discovery_searches_total",
		Help: "Total number of discovery search requests by status",
	}, []string{"status"})

	DiscoveryGroupsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxi_discovery_groups_found_total",
		Help: "Total number of candidate groups recorded by discovery",
	})

	GroupsJoined = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_groups_joined_total",
		Help: "Total number of group join attempts by status",
	}, []string{"status"})

	GroupsMonitored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taxi_groups_monitored",
		Help: "Current number of active groups tracked for history sync",
	})

	ReaderFloodWaitSecondsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_reader_flood_wait_seconds_total",
		Help: "Total time in seconds spent waiting for Telegram flood control",
	}, []string{"chat"})

	ReaderFloodWaitCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_reader_flood_wait_total",
		Help: "Total number of Telegram flood wait events",
	}, []string{"chat"})

	ReaderFetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_reader_fetch_requests_total",
		Help: "Total number of history fetch requests to Telegram",
	}, []string{"chat", "status"})

	ReaderIngestLagSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxi_reader_ingest_lag_seconds",
		Help:    "Lag between message timestamp and ingestion time",
		Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	}, []string{"chat"})

	BotCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_bot_commands_total",
		Help: "Total number of management bot commands by command name",
	}, []string{"command"})

	BroadcastsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_broadcasts_total",
		Help: "Total number of broadcast deliveries by status",
	}, []string{"status"})
)
