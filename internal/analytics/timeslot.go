package analytics

import (
	"time"

	"raseed/internal/core"
)

// Slot names used as keys in TimeSlotReport.SlotSummary.
const (
	SlotMorning   = "morning"   // [05:00, 12:00)
	SlotAfternoon = "afternoon" // [12:00, 17:00)
	SlotEvening   = "evening"   // [17:00, 21:00)
	SlotNight     = "night"     // everything else
)

// TimeSlotReport is the time_slot_breakdown section of a composed report.
// Only slots with at least one contribution appear in SlotSummary; callers
// default missing keys to zero themselves.
type TimeSlotReport struct {
	UID         string             `json:"uid"`
	SlotSummary map[string]float64 `json:"slot_summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// AnalyzeTimeSlots buckets each receipt's item-amount total into exactly
// one of the four fixed daily windows, by hour of the receipt timestamp.
func AnalyzeTimeSlots(uid string, receipts []core.Receipt) TimeSlotReport {
	summary := make(map[string]float64)
	for _, r := range receipts {
		summary[slotForHour(r.Timestamp.Hour())] += r.TotalSpend()
	}
	for slot, total := range summary {
		summary[slot] = core.Round2(total)
	}

	return TimeSlotReport{
		UID:         uid,
		SlotSummary: summary,
		GeneratedAt: time.Now(),
	}
}

func slotForHour(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 17:
		return SlotAfternoon
	case hour >= 17 && hour < 21:
		return SlotEvening
	default:
		return SlotNight
	}
}
