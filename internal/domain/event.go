package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryConference    Category = "conference"
	CategoryWorkshop      Category = "workshop"
	CategoryWebinar       Category = "webinar"
	CategoryNetworking    Category = "networking"
	CategoryConcert       Category = "concert"
	CategorySports        Category = "sports"
	CategoryArt           Category = "art"
	CategoryTech          Category = "tech"
	CategoryBusiness      Category = "business"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryConference, CategoryWorkshop, CategoryWebinar, CategoryNetworking,
	CategoryConcert, CategorySports, CategoryArt, CategoryTech,
	CategoryBusiness, CategoryEducation, CategoryEntertainment, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

var EventStatuses = []EventStatus{
	EventStatusDraft, EventStatusPublished, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled,
}

func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Event is an organizer-owned gathering. AttendeeCount and TotalRevenue are
// denormalized and only change through the registration path.
type Event struct {
	ID                     uuid.UUID       `json:"id"`
	OrganizerWalletAddress string          `json:"organizerWalletAddress"`
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	Category               Category        `json:"category"`
	Location               string          `json:"location"`
	IsVirtual              bool            `json:"isVirtual"`
	StartDate              time.Time       `json:"startDate"`
	EndDate                time.Time       `json:"endDate"`
	Capacity               int             `json:"capacity"`
	AttendeeCount          int             `json:"attendeeCount"`
	TicketPrice            decimal.Decimal `json:"ticketPrice"`
	ImageURL               *string         `json:"imageUrl"`
	BannerURL              *string         `json:"bannerUrl"`
	Status                 EventStatus     `json:"status"`
	CanMintNFT             bool            `json:"canMintNFT"`
	NFTMetadata            *string         `json:"nftMetadata"`
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
	DeletedAt              *time.Time      `json:"deletedAt,omitempty"`
}

func (e Event) OwnedBy(wallet string) bool {
	return wallet != "" && e.OrganizerWalletAddress == wallet
}

func (e Event) SpotsLeft() int {
	if e.AttendeeCount >= e.Capacity {
		return 0
	}
	return e.Capacity - e.AttendeeCount
}

// NewEvent builds a draft event from an input that already passed Validate.
func NewEvent(organizer string, in CreateEventInput, now time.Time) Event {
	price, _ := decimal.NewFromString(in.TicketPrice)
	return Event{
		ID:                     uuid.New(),
		OrganizerWalletAddress: organizer,
		Title:                  in.Title,
		Description:            in.Description,
		Category:               in.Category,
		Location:               in.Location,
		IsVirtual:              in.IsVirtual,
		StartDate:              in.StartDate.UTC(),
		EndDate:                in.EndDate.UTC(),
		Capacity:               in.Capacity,
		TicketPrice:            price,
		ImageURL:               optional(in.ImageURL),
		BannerURL:              optional(in.BannerURL),
		Status:                 EventStatusDraft,
		CanMintNFT:             in.CanMintNFT,
		NFTMetadata:            optional(in.NFTMetadata),
		TotalRevenue:           decimal.Zero,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// EventFilter narrows ListEvents. Zero values mean "any".
type EventFilter struct {
	Category  Category
	Status    EventStatus
	Organizer string
	Search    string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
