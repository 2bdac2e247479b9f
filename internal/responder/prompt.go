package responder

import (
	"fmt"
	"strings"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
)

// listingContextLimit caps how many listings go into the prompt so a large
// portfolio cannot blow the context window.
const listingContextLimit = 10

var weekdayOrder = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var weekdayNames = map[string]string{
	"sunday":    "الأحد",
	"monday":    "الاثنين",
	"tuesday":   "الثلاثاء",
	"wednesday": "الأربعاء",
	"thursday":  "الخميس",
	"friday":    "الجمعة",
	"saturday":  "السبت",
}

// listingKeywords gate the listings block: property data only enters the
// prompt when the customer actually asks about properties or prices.
var listingKeywords = []string{
	"منتج", "منتجات", "سعر", "أسعار", "متوفر", "توفر", "شراء", "اشتري",
	"كم", "ايش", "وش", "عندكم", "لديكم", "عقار", "عقارات", "شقة", "فيلا",
}

// buildSystemContext assembles the system blocks for one generation:
// operator instructions, business profile, and (when the message asks for
// it) the current listings.
func buildSystemContext(userMessage, systemPrompt string, business *store.BusinessProfile, listings []*store.Listing) []string {
	var blocks []string
	if strings.TrimSpace(systemPrompt) != "" {
		blocks = append(blocks, "التعليمات: "+systemPrompt)
	}
	if business != nil {
		blocks = append(blocks, businessBlock(business))
	}
	if len(listings) > 0 && mentionsListings(userMessage) {
		blocks = append(blocks, listingsBlock(listings))
	}
	return blocks
}

func mentionsListings(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range listingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func businessBlock(b *store.BusinessProfile) string {
	var sb strings.Builder
	sb.WriteString("معلومات البزنس:\n")
	fmt.Fprintf(&sb, "اسم البزنس: %s\n", b.Name)
	fmt.Fprintf(&sb, "الوصف: %s\n", b.Description)
	fmt.Fprintf(&sb, "رقم الهاتف: %s\n", b.Phone)
	fmt.Fprintf(&sb, "البريد الإلكتروني: %s\n", b.Email)
	fmt.Fprintf(&sb, "العنوان: %s\n", b.Address)

	if len(b.WorkingHours) > 0 {
		sb.WriteString("ساعات العمل:\n")
		for _, day := range weekdayOrder {
			if hours, ok := b.WorkingHours[day]; ok {
				fmt.Fprintf(&sb, "%s: %s\n", weekdayNames[day], hours)
			}
		}
	}
	if len(b.PaymentMethods) > 0 {
		fmt.Fprintf(&sb, "طرق الدفع المتاحة: %s\n", strings.Join(b.PaymentMethods, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func listingsBlock(listings []*store.Listing) string {
	if len(listings) > listingContextLimit {
		listings = listings[:listingContextLimit]
	}
	var sb strings.Builder
	sb.WriteString("العقارات المتاحة:\n")
	for _, l := range listings {
		currency := l.Currency
		if currency == "" {
			currency = "جنيه"
		}
		fmt.Fprintf(&sb, "- %s\n", l.Title)
		fmt.Fprintf(&sb, "  النوع: %s\n", l.Type)
		fmt.Fprintf(&sb, "  السعر: %.0f %s\n", l.Price, currency)
		fmt.Fprintf(&sb, "  الحالة: %s\n", l.Status)
		fmt.Fprintf(&sb, "  الموقع: %s, %s\n", l.Location.City, l.Location.District)
		fmt.Fprintf(&sb, "  الوصف: %s\n\n", l.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
