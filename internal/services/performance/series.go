package performance

import (
	"sort"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// assetState is the running holding of one position while a class curve is built.
type assetState struct {
	position    models.Position
	records     map[time.Time]models.PriceRecord
	quantity    float64
	lastPrice   float64
	initialCost float64
}

// referencePrice is the first priced record on or after the purchase date,
// else the first priced record at all, else the recorded purchase price.
func referencePrice(pos models.Position, history []models.PriceRecord) float64 {
	for _, r := range history {
		if r.HasPrice() && !r.Date.Before(pos.PurchaseDate) {
			return r.Price
		}
	}
	for _, r := range history {
		if r.HasPrice() {
			return r.Price
		}
	}
	return pos.PurchasePrice
}

// BuildClassSeries merges the price histories of one asset class into a
// single daily curve of market value and invested capital.
//
// histories is keyed by ticker; positions sharing a ticker share its history
// but are tracked as separate holdings. Positions without history are left out.
// Cash dividends are reinvested in full at the day's last known price.
// Days before the earliest purchase and days with no active holding are
// dropped.
func BuildClassSeries(positions []models.Position, histories map[string][]models.PriceRecord) []models.DailyPoint {
	var assets []*assetState
	dateSet := make(map[time.Time]struct{})
	var earliest time.Time

	for _, pos := range positions {
		history := histories[pos.Ticker]
		if len(history) == 0 {
			continue
		}

		ref := referencePrice(pos, history)
		st := &assetState{
			position:    pos,
			records:     make(map[time.Time]models.PriceRecord, len(history)),
			quantity:    pos.Quantity,
			lastPrice:   ref,
			initialCost: ref * pos.Quantity,
		}
		for _, r := range history {
			d := models.Day(r.Date)
			st.records[d] = r
			dateSet[d] = struct{}{}
		}
		assets = append(assets, st)

		if earliest.IsZero() || pos.PurchaseDate.Before(earliest) {
			earliest = pos.PurchaseDate
		}
	}

	if len(assets) == 0 {
		return []models.DailyPoint{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]models.DailyPoint, 0, len(dates))
	for _, date := range dates {
		var value, invested float64

		for _, a := range assets {
			if rec, ok := a.records[date]; ok {
				if rec.HasPrice() {
					a.lastPrice = rec.Price
				}
				if rec.Dividend > 0 && !date.Before(a.position.PurchaseDate) && a.lastPrice > 0 {
					a.quantity += rec.Dividend * a.quantity / a.lastPrice
				}
			}

			if a.position.PurchaseDate.After(date) {
				continue
			}
			value += a.quantity * a.lastPrice
			invested += a.initialCost
		}

		if value == 0 || date.Before(earliest) {
			continue
		}

		points = append(points, models.DailyPoint{
			Date:           date,
			PortfolioValue: value,
			InvestedAmount: invested,
		})
	}

	return points
}

// CombineHistories sums curves by date. A date missing from some curves
// still counts, with those curves contributing nothing. Values keep full
// precision; rounding happens once on output.
func CombineHistories(curves ...[]models.DailyPoint) []models.DailyPoint {
	byDate := make(map[time.Time]*models.DailyPoint)

	for _, curve := range curves {
		for _, p := range curve {
			d := models.Day(p.Date)
			acc, ok := byDate[d]
			if !ok {
				acc = &models.DailyPoint{Date: d}
				byDate[d] = acc
			}
			acc.PortfolioValue += p.PortfolioValue
			acc.InvestedAmount += p.InvestedAmount
		}
	}

	combined := make([]models.DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		combined = append(combined, *p)
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].Date.Before(combined[j].Date) })

	return combined
}

// truncateAfter drops points dated after asOf.
func truncateAfter(points []models.DailyPoint, asOf time.Time) []models.DailyPoint {
	out := points[:0:0]
	for _, p := range points {
		if p.Date.After(asOf) {
			continue
		}
		out = append(out, p)
	}
	return out
}
