package models

import "time"

// ActivityData per-room occupancy counters
type ActivityData struct {
	VisitCount    int           `json:"visit_count"`
	TotalStayTime time.Duration `json:"total_stay_time"`
}
