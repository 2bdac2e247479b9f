package store

import "time"

// Listing status labels. The dashboard and the original data files use the
// Arabic labels directly, so they are stored verbatim.
const (
	StatusAvailable = "متاح"
	StatusReserved  = "محجوز"
	StatusSold      = "مباع"
)

// Default statuses for newly created scheduling records.
const (
	AppointmentStatusScheduled = "مجدول"
	InquiryStatusNew           = "جديد"
)

// BusinessProfile is the singleton business record shown to customers and
// used as generation context for the AI responder.
type BusinessProfile struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Phone          string            `json:"phone"`
	Email          string            `json:"email"`
	Address        string            `json:"address"`
	WorkingHours   map[string]string `json:"workingHours,omitempty"`
	PaymentMethods []string          `json:"paymentMethods,omitempty"`
	// AdminNumbers may arrive from the dashboard form as newline-separated
	// free text; use Store.AdminNumbers for the normalized list.
	AdminNumbers string `json:"adminNumbers,omitempty"`
}

// Location describes where a listing is.
type Location struct {
	City     string `json:"city"`
	District string `json:"district"`
	Address  string `json:"address,omitempty"`
}

// Listing is a property offered by the brokerage.
type Listing struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Location       Location `json:"location"`
	Area           float64  `json:"area"`
	Rooms          int      `json:"rooms"`
	Bathrooms      int      `json:"bathrooms"`
	Floor          int      `json:"floor"`
	TotalFloors    int      `json:"totalFloors,omitempty"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency"`
	Status         string   `json:"status"`
	Features       []string `json:"features,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
	PaymentOptions []string `json:"paymentOptions,omitempty"`
	AddedDate      string   `json:"addedDate,omitempty"`
	Views          int      `json:"views"`
	Inquiries      int      `json:"inquiries"`
}

// Appointment is a meeting request created by the dashboard or the bot flow.
type Appointment struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	ClientPhone string    `json:"clientPhone"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Notes       string    `json:"notes,omitempty"`
	ListingID   string    `json:"propertyId,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Inquiry is a free-text customer question linked to an optional listing.
type Inquiry struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	ClientPhone string    `json:"clientPhone"`
	Message     string    `json:"message"`
	ListingID   string    `json:"propertyId,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListingStats summarizes the listings collection for the dashboard.
type ListingStats struct {
	Total        int     `json:"totalProperties"`
	Available    int     `json:"availableProperties"`
	Reserved     int     `json:"reservedProperties"`
	Sold         int     `json:"soldProperties"`
	TotalViews   int      `json:"totalViews"`
	TotalInquiry int      `json:"totalInquiries"`
	AveragePrice float64  `json:"averagePrice"`
	Types        []string `json:"types"`
	Cities       []string `json:"locations"`
}

// SearchFilter narrows listing search results.
type SearchFilter struct {
	Query    string
	Type     string
	City     string
	MinPrice float64
	MaxPrice float64
}
