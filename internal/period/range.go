package period

// MonthsToDates expands every month into all of its days, chronologically,
// concatenated in the order the months were given.
func MonthsToDates(months []Month) []Date {
	dates := make([]Date, 0, len(months)*31)
	for _, m := range months {
		dates = append(dates, SpanToDates(m.FirstDay(), m.LastDay())...)
	}
	return dates
}

// SpanToDates returns every date from start to end, both inclusive.
// The result is empty if end is before start.
func SpanToDates(start, end Date) []Date {
	if end.Before(start) {
		return []Date{}
	}
	dates := make([]Date, 0, int(end.Time().Sub(start.Time()).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// MonthsBetween returns every month touched by the span start..end, in order.
func MonthsBetween(start, end Date) []Month {
	if end.Before(start) {
		return []Month{}
	}
	last := MonthOf(end)
	months := []Month{}
	for m := MonthOf(start); ; m = m.Next() {
		months = append(months, m)
		if m == last {
			break
		}
	}
	return months
}
