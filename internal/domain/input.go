package domain

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var ticketPricePattern = regexp.MustCompile(`^\d+(\.\d{1,8})?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("event_status", func(fl validator.FieldLevel) bool {
		return EventStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("ticket_price", func(fl validator.FieldLevel) bool {
		return ticketPricePattern.MatchString(fl.Field().String())
	})
	return v
}

// CreateEventInput is the organizer-supplied body of a new event.
type CreateEventInput struct {
	Title       string    `json:"title" validate:"min=3,max=255"`
	Description string    `json:"description" validate:"min=10,max=5000"`
	Category    Category  `json:"category" validate:"event_category"`
	Location    string    `json:"location" validate:"min=3,max=500"`
	IsVirtual   bool      `json:"isVirtual"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Capacity    int       `json:"capacity" validate:"min=1,max=1000000"`
	TicketPrice string    `json:"ticketPrice" validate:"ticket_price"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	BannerURL   string    `json:"bannerUrl" validate:"omitempty,url"`
	CanMintNFT  bool      `json:"canMintNFT"`
	NFTMetadata string    `json:"nftMetadata"`
}

func (in CreateEventInput) Validate(now time.Time) error {
	verr := structProblems(in)
	if !in.StartDate.IsZero() && !in.StartDate.After(now) {
		verr.add("startDate", "Start date must be in the future")
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && !in.EndDate.After(in.StartDate) {
		verr.add("endDate", "End date must be after start date")
	}
	return verr.orNil()
}

// EventPatch holds the optional fields of an update. Nil means "keep".
type EventPatch struct {
	Title       *string      `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string      `json:"description" validate:"omitempty,min=10,max=5000"`
	Category    *Category    `json:"category" validate:"omitempty,event_category"`
	Location    *string      `json:"location" validate:"omitempty,min=3,max=500"`
	IsVirtual   *bool        `json:"isVirtual"`
	StartDate   *time.Time   `json:"startDate"`
	EndDate     *time.Time   `json:"endDate"`
	Capacity    *int         `json:"capacity" validate:"omitempty,min=1,max=1000000"`
	TicketPrice *string      `json:"ticketPrice" validate:"omitempty,ticket_price"`
	ImageURL    *string      `json:"imageUrl" validate:"omitempty,url"`
	BannerURL   *string      `json:"bannerUrl" validate:"omitempty,url"`
	CanMintNFT  *bool        `json:"canMintNFT"`
	NFTMetadata *string      `json:"nftMetadata"`
	Status      *EventStatus `json:"status" validate:"omitempty,event_status"`
}

// Normalize drops empty strings, which clients send for "unchanged".
func (p *EventPatch) Normalize() {
	for _, s := range []**string{&p.Title, &p.Description, &p.Location, &p.TicketPrice, &p.ImageURL, &p.BannerURL, &p.NFTMetadata} {
		if *s != nil && **s == "" {
			*s = nil
		}
	}
	if p.Category != nil && *p.Category == "" {
		p.Category = nil
	}
	if p.Status != nil && *p.Status == "" {
		p.Status = nil
	}
}

// Validate checks the fields of the patch on their own.
func (p EventPatch) Validate(now time.Time) error {
	verr := structProblems(p)
	if p.StartDate != nil && !p.StartDate.After(now) {
		verr.add("startDate", "Start date must be in the future")
	}
	if p.StartDate != nil && p.EndDate != nil && !p.EndDate.After(*p.StartDate) {
		verr.add("endDate", "End date must be after start date")
	}
	return verr.orNil()
}

// CheckAgainst validates the patch merged onto the current record.
func (p EventPatch) CheckAgainst(e Event) error {
	verr := &ValidationError{}
	start, end := e.StartDate, e.EndDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	if p.EndDate != nil {
		end = *p.EndDate
	}
	if !end.After(start) {
		verr.add("endDate", "End date must be after start date")
	}
	if p.Capacity != nil && *p.Capacity < e.AttendeeCount {
		verr.add("capacity", "Capacity cannot be lower than the current attendee count")
	}
	return verr.orNil()
}

// Price returns the parsed ticket price, if one was provided.
func (p EventPatch) Price() *decimal.Decimal {
	if p.TicketPrice == nil {
		return nil
	}
	d, err := decimal.NewFromString(*p.TicketPrice)
	if err != nil {
		return nil
	}
	return &d
}

func (p EventPatch) Empty() bool {
	return p == EventPatch{}
}

func structProblems(v any) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("body", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "ticket_price":
		return "Invalid ticket price format"
	case "event_category":
		return "must be one of: " + joinCategories()
	case "event_status":
		return "must be one of: draft, published, ongoing, completed, cancelled"
	}
	return "is invalid"
}

func joinCategories() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
