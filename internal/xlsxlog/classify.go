package xlsxlog

import "strings"

var meetingKeywords = []string{
	"ميتنج", "اجتماع", "لقاء", "موعد", "مقابلة", "استشارة",
	"أريد أتكلم", "عاوز أتكلم", "محتاج أتكلم", "ممكن نتكلم",
	"مكالمة", "اتصال", "زيارة", "أريد أقابل", "عاوز أقابل",
}

var salesKeywords = []string{
	"مبيعات", "sales", "بيع", "شراء", "أريد أشتري", "عاوز أشتري",
	"استفسار", "سؤال", "معلومات", "تفاصيل", "أسعار", "عروض",
	"تواصل", "اتصل بي", "كلمني", "رد عليا", "محتاج مساعدة",
}

// IsMeetingRequest reports whether the message asks for a meeting, call,
// or visit.
func IsMeetingRequest(message string) bool {
	return containsAny(message, meetingKeywords)
}

// IsSalesContactRequest reports whether the message asks for sales
// follow-up or pricing details.
func IsSalesContactRequest(message string) bool {
	return containsAny(message, salesKeywords)
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
