// internal/catalog/calendar.go
package catalog

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"
)

const (
	calendarProductID = "-//heritage//festival calendar//EN"
	calendarName      = "Monastery Festival Calendar"
	uidDomain         = "heritage.local"
)

const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + calendarProductID + "\r\nX-WR-CALNAME:" + calendarName + "\r\nEND:VCALENDAR\r\n"

// parseMonth accepts full or three-letter English month names.
func parseMonth(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(name, s) || strings.EqualFold(name[:3], s) {
			return m, true
		}
	}
	return 0, false
}

// encodeCalendar renders events as all-day VEVENTs on the first day of
// their month in year.
func encodeCalendar(events []Event, year int, now time.Time, logger *zap.Logger) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText("X-WR-CALNAME", calendarName)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	for _, e := range events {
		month, ok := parseMonth(e.Month)
		if !ok {
			logger.Warn("skipping event with unparseable month",
				zap.String("event_id", e.ID),
				zap.String("month", e.Month),
			)
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%d@%s", e.ID, year, uidDomain))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDate(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
		event.Props.Set(start)

		event.Props.SetText(ical.PropSummary, e.Name)
		if e.Description != "" {
			event.Props.SetText(ical.PropDescription, e.Description)
		}
		if e.Location != "" {
			event.Props.SetText(ical.PropLocation, e.Location)
		}
		if e.Type != "" {
			event.Props.SetText(ical.PropCategories, e.Type)
		}

		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return []byte(emptyCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
