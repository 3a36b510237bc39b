package eventbus

const (
	TopicSurveillanceTicks = "surveillance_ticks"
	TopicEscalationEvents  = "escalation_events"
	TopicSuspicionEvents   = "suspicion_events"
)

const (
	TypeSurveillance = "surveillance."
	TypeSuspicion    = "suspicion."
	TypeTick         = "tick."
)

const (
	EventTick        = TypeTick + "requested"
	EventHeatUpdated = TypeSuspicion + "heat_updated"
)
