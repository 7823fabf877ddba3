package leave

import (
	"errors"
	"time"
)

// CalculateDays returns the inclusive calendar-day count between start
// and end. Weekends count: a Friday-to-Monday request is four days.
func CalculateDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	start = truncateToDay(start)
	end = truncateToDay(end)
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// PredictLwop is the filing-time LWOP flag: the request spills into
// unpaid leave if it asks for more days than the balance has left.
func PredictLwop(totalDays int, balance Balance) bool {
	return totalDays > balance.Remaining()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
