package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
)

// FallbackReply produces a canned Arabic reply when AI generation is
// unavailable. It is total: every input maps to a branch, with the generic
// consultation pitch as the floor. Branch order matters; earlier branches
// win when keywords overlap.
func FallbackReply(messageText string, business *store.BusinessProfile, listings []*store.Listing) string {
	if business == nil {
		business = &store.BusinessProfile{}
	}
	message := strings.ToLower(messageText)

	if containsAny(message, "مرحبا", "السلام", "هلا", "اهلا") {
		return fmt.Sprintf("أهلاً وسهلاً بك في %s! 🏠\n\n"+
			"نحن مستشارون عقاريون متخصصون في الاستثمار العقاري داخل مصر 🇪🇬\n\n"+
			"📍 الموقع: %s\n📞 للتواصل: %s\n\n"+
			"كيف يمكنني مساعدتك في رحلتك الاستثمارية؟",
			business.Name, business.Address, business.Phone)
	}

	if containsAny(message, "عقار", "شقة", "فيلا", "سعر", "استثمار") {
		return listingReply(listings)
	}

	if containsAny(message, "موعد", "مكالمة", "لقاء", "ميتنج") {
		return "📅 ممتاز! سأكون سعيداً بترتيب موعد معك\n\n" +
			"يرجى إرسال:\n• اسمك الكريم\n• رقم هاتفك\n• الوقت المفضل للمكالمة\n• نوع العقار المهتم به (إن وجد)\n\n" +
			"وسأتواصل معك في أقرب وقت لتحديد موعد مناسب 📞"
	}

	if containsAny(message, "عائد", "ربح", "تضخم") {
		return "💡 الاستثمار العقاري في مصر فرصة ذهبية!\n\n" +
			"🔹 حماية من التضخم\n🔹 عائد استثماري مجزي\n🔹 زيادة قيمة رأس المال\n🔹 دخل شهري ثابت (حسب نوع العقار)\n\n" +
			"التفاصيل الاستثمارية تحتاج شرح مفصل...\n\n" +
			"خلينا نعمل مكالمة 10 دقائق نوضح لك الصورة كاملة؟\n\nإمتى الوقت المناسب؟"
	}

	if containsAny(message, "ساعات", "موقع", "عنوان", "مكتب") {
		return officeReply(business)
	}

	if containsAny(message, "تواصل", "هاتف", "ايميل", "رقم") {
		return fmt.Sprintf("📞 للتواصل المباشر:\n\n📱 الهاتف: %s\n📧 البريد الإلكتروني: %s\n📍 العنوان: %s\n\n"+
			"أو تواصل معي هنا مباشرة وسأكون سعيداً بمساعدتك! 😊",
			business.Phone, business.Email, business.Address)
	}

	if containsAny(message, "دفع", "تقسيط", "سداد") {
		methods := "• نقداً\n• تحويل بنكي\n• تقسيط مريح"
		if len(business.PaymentMethods) > 0 {
			methods = "• " + strings.Join(business.PaymentMethods, "\n• ")
		}
		return fmt.Sprintf("💳 طرق الدفع المتاحة:\n\n%s\n\n"+
			"📋 كل عقار له خطة سداد مرنة تناسب ظروفك المالية\n\n"+
			"عشان نحدد الخطة المناسبة ليك، خلينا نتكلم في مكالمة سريعة؟", methods)
	}

	return fmt.Sprintf("شكراً لتواصلك مع %s! 🏠\n\n"+
		"أنا مستشارك العقاري وأقدر أساعدك في:\n\n"+
		"🔹 اختيار العقار المناسب لاستثمارك\n🔹 تحليل العائد المتوقع\n🔹 خطط السداد المرنة\n🔹 المتابعة القانونية\n🔹 تقييم الفرص الاستثمارية\n\n"+
		"الاستثمار العقاري قرار مهم يحتاج نقاش مفصل...\n\n"+
		"خلينا نرتب مكالمة قصيرة نشرح فيها كل التفاصيل؟ 📞", business.Name)
}

func listingReply(listings []*store.Listing) string {
	var sb strings.Builder
	sb.WriteString("🏠 العقارات المتاحة لدينا:\n\n")
	if len(listings) > 0 {
		shown := listings
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for i, l := range shown {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, l.Title)
			fmt.Fprintf(&sb, "   📍 الموقع: %s, %s\n", l.Location.District, l.Location.City)
			fmt.Fprintf(&sb, "   📐 المساحة: %.0f م²\n", l.Area)
			fmt.Fprintf(&sb, "   💰 السعر: %s %s\n", formatPrice(l.Price), l.Currency)
			fmt.Fprintf(&sb, "   🏠 النوع: %s\n\n", l.Type)
		}
		if len(listings) > 3 {
			sb.WriteString("وعقارات أخرى متنوعة...\n\n")
		}
	} else {
		sb.WriteString("لدينا مجموعة متنوعة من العقارات الاستثمارية\n\n")
	}
	sb.WriteString("💡 للحصول على تفاصيل أكثر وتحليل استثماري مفصل، دعنا نرتب مكالمة سريعة!\n\nمتى يناسبك نتكلم؟")
	return sb.String()
}

func officeReply(business *store.BusinessProfile) string {
	days := make([]string, 0, len(business.WorkingHours))
	for day := range business.WorkingHours {
		days = append(days, day)
	}
	sort.Strings(days)
	hours := make([]string, 0, len(days))
	for _, day := range days {
		hours = append(hours, fmt.Sprintf("%s: %s", day, business.WorkingHours[day]))
	}
	methods := "متنوعة"
	if len(business.PaymentMethods) > 0 {
		methods = strings.Join(business.PaymentMethods, "\n• ")
	}
	return fmt.Sprintf("📍 معلومات المكتب:\n\n🏢 %s\n📍 العنوان: %s\n📞 الهاتف: %s\n📧 البريد: %s\n\n"+
		"⏰ ساعات العمل:\n%s\n\n💳 طرق الدفع المتاحة:\n%s\n\nنحن في خدمتك دائماً! 🤝",
		business.Name, business.Address, business.Phone, business.Email,
		strings.Join(hours, "\n"), methods)
}

// formatPrice renders a price with thousands separators, the way the
// dashboard shows it.
func formatPrice(price float64) string {
	raw := fmt.Sprintf("%.0f", price)
	neg := strings.HasPrefix(raw, "-")
	if neg {
		raw = raw[1:]
	}
	var parts []string
	for len(raw) > 3 {
		parts = append([]string{raw[len(raw)-3:]}, parts...)
		raw = raw[:len(raw)-3]
	}
	parts = append([]string{raw}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func containsAny(message string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}
