package epg

import "time"

// CurrentAndNext returns the program airing on the channel at now and its
// immediate successor in the schedule. A gap in the guide yields nil for
// both: the engine never extrapolates. next is nil when current is the last
// known entry.
func CurrentAndNext(guide *Guide, channelID string, now time.Time) (current, next *Program) {
	programs := guide.Programs[channelID]

	for i := range programs {
		p := &programs[i]
		if !p.Start.After(now) && p.Stop.After(now) {
			current = p
			if i+1 < len(programs) {
				next = &programs[i+1]
			}
			return current, next
		}
	}

	return nil, nil
}

// Upcoming returns the channel's programs whose start falls in
// [now, now+window), in ascending start order. A channel with no programs,
// or none in range, yields an empty slice.
func Upcoming(guide *Guide, channelID string, now time.Time, window time.Duration) []Program {
	end := now.Add(window)

	var upcoming []Program
	for _, p := range guide.Programs[channelID] {
		if p.Start.Before(now) {
			continue
		}
		if !p.Start.Before(end) {
			// Programs are sorted by start; nothing later can qualify.
			break
		}
		upcoming = append(upcoming, p)
	}

	return upcoming
}
