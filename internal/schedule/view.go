package schedule

// DefaultPageSize is the number of trips shown per page of a trip list.
const DefaultPageSize = 20

// Overview returns the first two and last two trips of a schedule.
// Schedules with fewer than two trips have no overview.
func Overview(trips []Trip) (first, last []Trip) {
	if len(trips) < 2 {
		return nil, nil
	}
	n := len(trips)
	first = append([]Trip(nil), trips[:2]...)
	last = append([]Trip(nil), trips[n-2:]...)
	return first, last
}

// Page returns at most size trips starting at offset. A non-positive size
// falls back to DefaultPageSize; an offset past the end yields an empty page.
func Page(trips []Trip, offset, size int) []Trip {
	if size <= 0 {
		size = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(trips) {
		return []Trip{}
	}
	end := offset + size
	if end > len(trips) {
		end = len(trips)
	}
	return append([]Trip(nil), trips[offset:end]...)
}
