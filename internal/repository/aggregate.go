package repository

import (
	"time"

	"subscription-service/internal/model"
)

type serviceMonth struct {
	service string
	year    int
	month   time.Month
}

// TotalCost computes the total billed amount for a set of subscriptions
// over the filter's month window. Every subscription contributes its price
// once per calendar month it is active inside the window; when several
// subscriptions to the same service cover the same month, only the highest
// price counts for that month. Open-ended subscriptions are clipped to now
// (month granularity). No matches means a total of zero.
//
// The caller is expected to have pre-filtered subs with Filter.Matches (or
// the equivalent SQL predicate); rows outside the window simply expand to
// no months here, so an unfiltered slice still totals correctly.
func TotalCost(subs []model.Subscription, filter Filter, now model.MonthDate) int {
	highest := make(map[serviceMonth]int)

	for _, sub := range subs {
		if !filter.Matches(sub) {
			continue
		}

		from := sub.StartDate
		if filter.StartDate != nil && filter.StartDate.After(from.Time) {
			from = *filter.StartDate
		}

		// Open-ended subscriptions bill through the current month.
		to := now
		if sub.EndDate != nil {
			to = *sub.EndDate
		}
		if filter.EndDate != nil && filter.EndDate.Before(to.Time) {
			to = *filter.EndDate
		}

		// Inverted ranges (end before start) expand to nothing, which is
		// the permissive write-time behavior carried through.
		for m := from; !m.After(to.Time); m = m.AddMonths(1) {
			key := serviceMonth{sub.ServiceName, m.Year(), m.Month()}
			if price, ok := highest[key]; !ok || sub.Price > price {
				highest[key] = sub.Price
			}
		}
	}

	total := 0
	for _, price := range highest {
		total += price
	}
	return total
}
