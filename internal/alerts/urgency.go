package alerts

type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
	UrgencyInfo     Urgency = "info"
)

// UrgencyFor раскладывает срок до продления на пять уровней срочности.
func UrgencyFor(daysUntil int) Urgency {
	switch {
	case daysUntil <= 1:
		return UrgencyCritical
	case daysUntil <= 3:
		return UrgencyHigh
	case daysUntil <= 7:
		return UrgencyMedium
	case daysUntil <= 14:
		return UrgencyLow
	default:
		return UrgencyInfo
	}
}
