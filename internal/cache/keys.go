package cache

import (
	"crypto/sha1"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
)

const (
	listPattern      = "events:list:*"
	organizerPattern = "events:organizer:*"
)

func eventKey(id uuid.UUID) string {
	return "event:" + id.String()
}

func attendeesPattern(eventID uuid.UUID) string {
	return "event:" + eventID.String() + ":attendees:*"
}

func attendeesKey(eventID uuid.UUID, p domain.PageRequest) string {
	return "event:" + eventID.String() + ":attendees:" + pageSuffix(p)
}

// listKey files organizer listings under their own prefix so both patterns
// can be dropped independently.
func listKey(f domain.EventFilter, p domain.PageRequest) string {
	sum := sha1.Sum([]byte(string(f.Category) + "|" + string(f.Status) + "|" + f.Search))
	hash := fmt.Sprintf("%x", sum[:8])
	if f.Organizer != "" {
		return "events:organizer:" + f.Organizer + ":" + hash + ":" + pageSuffix(p)
	}
	return "events:list:" + hash + ":" + pageSuffix(p)
}

func upcomingKey(limit int) string {
	return "events:list:upcoming:" + strconv.Itoa(limit)
}

func pageSuffix(p domain.PageRequest) string {
	return strconv.Itoa(p.Page) + ":" + strconv.Itoa(p.Limit)
}
