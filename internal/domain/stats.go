package domain

// Statistics is the aggregate view over all ClickEvents of one short code.
// The per-dimension maps each cover every observed value and each sum to
// TotalClicks. UniqueClicks counts distinct IP strings; the "unknown"
// sentinel counts as one distinct value like any other string.
type Statistics struct {
	TotalClicks     int64            `json:"totalClicks"`
	UniqueClicks    int64            `json:"uniqueClicks"`
	ClicksByCountry map[string]int64 `json:"clicksByCountry"`
	ClicksByDevice  map[string]int64 `json:"clicksByDevice"`
}

// EmptyStatistics returns a zero-valued Statistics with allocated maps,
// so a code with no events serializes as {} rather than null.
func EmptyStatistics() *Statistics {
	return &Statistics{
		ClicksByCountry: make(map[string]int64),
		ClicksByDevice:  make(map[string]int64),
	}
}

// Aggregate computes Statistics from a set of ClickEvents. The postgres
// store aggregates in SQL; this is the reference computation used by the
// in-memory paths and tests.
func Aggregate(events []*ClickEvent) *Statistics {
	stats := EmptyStatistics()
	ips := make(map[string]struct{}, len(events))
	for _, ev := range events {
		stats.TotalClicks++
		stats.ClicksByCountry[ev.Country]++
		stats.ClicksByDevice[ev.Device]++
		ips[ev.IP] = struct{}{}
	}
	stats.UniqueClicks = int64(len(ips))
	return stats
}
