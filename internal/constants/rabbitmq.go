package constants

// RabbitMQ topology for run-report publishing.
const (
	ReportsExchangeName = "sync_exchange"
	ReportsExchangeType = "direct"
	RoutingKeyRunReport = "sync.run_report"
)
