package models

// EmergencyCancellation is the body the upstream expects on emergency-cancel.
type EmergencyCancellation struct {
	Reason           string  `json:"reason"`
	RefundPercentage float64 `json:"refund_percentage"`
}

// CancellationPreview is shown to the operator before the cancellation is confirmed.
type CancellationPreview struct {
	ScheduleID       EntityID `json:"schedule_id"`
	Route            string   `json:"route"`
	DepartureDate    string   `json:"departure_date"`
	DepartureTime    string   `json:"departure_time"`
	BookedSeats      int      `json:"booked_seats"`
	Fare             float64  `json:"fare"`
	RefundPercentage float64  `json:"refund_percentage"`
	TotalRefund      float64  `json:"total_refund"`
}

// CancellationResult combines the preview with whatever the upstream answered.
type CancellationResult struct {
	Preview  CancellationPreview    `json:"preview"`
	Upstream map[string]interface{} `json:"upstream,omitempty"`
}
