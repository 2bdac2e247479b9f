package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultSystemPrompt is the persona script used when AI_SYSTEM_PROMPT is
// unset. It keeps the bot in character as an Egyptian real-estate
// consultant whose goal is moving the customer to a phone call.
const defaultSystemPrompt = `انت مستشار استثماري عقاري محترف بتمثل مكتب عقارات بيشتغل في المشاريع العقارية الاستثمارية جوا مصر

عندك معرفة قوية بالاقتصاد المصري والتضخم واسعار الفايدة وسوق العقارات وانماط الاستثمار الامن

مهمتك الاساسية
- التواصل مع العملا عبر الشات باحترافية عالية
- شرح فكرة الاستثمار العقاري بشكل ذكي وبسيط
- بناء الثقة من خلال التحليل الاقتصادي مش الوعود
- تحفيز العميل على حجز مكالمة تليفون او ميتنج عشان يحصل على التفاصيل الكاملة

اسلوب الحديث
- احترافي وواثق وذكي
- لغة عربية مصرية مهذبة بدون همزات او فواصل
- يعتمد على المنطق والتحليل الاقتصادي
- بدون مبالغة او ضغط مباشر

القواعد الاساسية
1. متذكرش اسعار نهائية او خطط سداد كاملة
2. متكشفش كل تفاصيل المشروع كتابيا
3. استخدم الاقتصاد كمدخل للاقناع
4. اربط دايما بين العقار كاصل وبين الامان المالي
5. اي قرار شرا حقيقي لازم ينتهي بمكالمة تليفون او مقابلة

ادارة الحوار
- ابدا بالترحيب والتعريف بنفسك كمستشار استثماري
- اسال اسئلة ذكية عشان تحدد احتياج العميل
- علق على اجابات العميل بتحليل مبسط وواضح
- انهي كل محادثة بدعوة صريحة لمكالمة او لقا

ممنوع تماما
- اعطا ارقام دقيقة او عروض مكتوبة كاملة
- وعود ارباح غير منطقية
- الضغط او الالحاح على العميل

مهم جدا: اكتب كل ردودك باللهجة المصرية العادية بدون همزات او فواصل او علامات ترقيم معقدة واستخدم كلمات بسيطة ومفهومة`

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DataDir            string
	PublicDir          string
	AuthDir            string
	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// AI configuration (startup defaults; mutable at runtime via the dashboard)
	AIEnabled          bool
	AIProvider         string
	AIModel            string
	AIAPIKey           string
	AISystemPrompt     string
	AIMaxHistory       int
	AIMaxConversations int

	// Chat session tuning
	SessionQRMaxRetries      int
	SessionMaxReconnects     int
	SessionReconnectBase     time.Duration
	SessionReconnectCap      time.Duration
	SessionKeepaliveInterval time.Duration
	SessionTypingDelay       time.Duration

	// Phone normalization for admin notifications
	DefaultCountryCode  string
	AdminFallbackNumber string

	// SendGrid Email Configuration (optional admin notifications)
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AdminEmail        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "12000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DataDir:            getEnv("DATA_DIR", "data"),
		PublicDir:          getEnv("PUBLIC_DIR", "public"),
		AuthDir:            getEnv("AUTH_DIR", "auth_state"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		AIEnabled:          getEnvAsBool("AI_ENABLED", true),
		AIProvider:         strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", "gemini"))),
		AIModel:            getEnv("AI_MODEL", "gemini-2.5-flash"),
		AIAPIKey:           getEnv("AI_API_KEY", ""),
		AISystemPrompt:     getEnv("AI_SYSTEM_PROMPT", defaultSystemPrompt),
		AIMaxHistory:       getEnvAsInt("AI_MAX_HISTORY", 10),
		AIMaxConversations: getEnvAsInt("AI_MAX_CONVERSATIONS", 1000),

		SessionQRMaxRetries:      getEnvAsInt("SESSION_QR_MAX_RETRIES", 3),
		SessionMaxReconnects:     getEnvAsInt("SESSION_MAX_RECONNECTS", 10),
		SessionReconnectBase:     getEnvAsDuration("SESSION_RECONNECT_BASE", 5*time.Second),
		SessionReconnectCap:      getEnvAsDuration("SESSION_RECONNECT_CAP", 30*time.Second),
		SessionKeepaliveInterval: getEnvAsDuration("SESSION_KEEPALIVE_INTERVAL", 30*time.Second),
		SessionTypingDelay:       getEnvAsDuration("SESSION_TYPING_DELAY", 2500*time.Millisecond),

		DefaultCountryCode:  getEnv("DEFAULT_COUNTRY_CODE", "20"),
		AdminFallbackNumber: getEnv("ADMIN_FALLBACK_NUMBER", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Realestate AI"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into a slice.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
