package xlsxlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return r
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestNewCreatesWorkbooksWithHeaders(t *testing.T) {
	r := newTestRecorder(t)

	rows := readSheet(t, r.MessagesFile(), messagesSheet)
	require.Len(t, rows, 1)
	assert.Equal(t, "التاريخ والوقت", rows[0][0])
	assert.Equal(t, "حالة الرد", rows[0][5])

	rows = readSheet(t, r.MeetingsFile(), meetingsSheet)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 7)

	rows = readSheet(t, r.SalesContactsFile(), salesSheet)
	require.Len(t, rows, 1)
	assert.Equal(t, "نوع الاستفسار", rows[0][3])
}

func TestNewKeepsExistingRows(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, r.SaveMessage("201001112222", "Omar", "مرحبا", "", ""))

	reopened, err := New(dir, nil)
	require.NoError(t, err)
	rows := readSheet(t, reopened.MessagesFile(), messagesSheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "مرحبا", rows[1][3])
}

func TestSaveMessageDefaults(t *testing.T) {
	r := newTestRecorder(t)
	require.NoError(t, r.SaveMessage("201001112222", "", "hello", "", ""))

	rows := readSheet(t, r.MessagesFile(), messagesSheet)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "201001112222", row[1])
	assert.Equal(t, "غير محدد", row[2])
	assert.Equal(t, "نص", row[4])
	assert.Equal(t, "تم الرد", row[5])
}

func TestAutoSaveClassifies(t *testing.T) {
	r := newTestRecorder(t)

	// Hits both keyword sets: meeting (موعد) and sales (أسعار).
	require.NoError(t, r.AutoSave("201001112222", "Omar", "عاوز موعد لمعرفة أسعار الشقق"))
	// Plain greeting hits neither.
	require.NoError(t, r.AutoSave("201001113333", "Sara", "مرحبا"))

	assert.Len(t, readSheet(t, r.MessagesFile(), messagesSheet), 3)

	meetings := readSheet(t, r.MeetingsFile(), meetingsSheet)
	require.Len(t, meetings, 2)
	assert.Equal(t, "طلب اجتماع من الواتساب", meetings[1][3])
	assert.Equal(t, "جديد", meetings[1][5])

	sales := readSheet(t, r.SalesContactsFile(), salesSheet)
	require.Len(t, sales, 2)
	assert.Equal(t, "استفسار من الواتساب", sales[1][3])
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		message string
		meeting bool
		sales   bool
	}{
		{"ممكن نتكلم بكرة؟", true, false},
		{"عاوز أشتري شقة", false, true},
		{"أريد استشارة وتفاصيل الأسعار", true, true},
		{"صباح الخير", false, false},
		{"SALES please", false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.meeting, IsMeetingRequest(tt.message), "meeting %q", tt.message)
		assert.Equal(t, tt.sales, IsSalesContactRequest(tt.message), "sales %q", tt.message)
	}
}

func TestStats(t *testing.T) {
	r := newTestRecorder(t)

	now := time.Now()
	r.now = func() time.Time { return now }
	require.NoError(t, r.SaveMessage("201", "Omar", "اليوم", "", ""))
	r.now = func() time.Time { return now.AddDate(0, -1, 0) }
	require.NoError(t, r.SaveMessage("202", "Sara", "الشهر الماضي", "", ""))
	r.now = func() time.Time { return now }

	stats := r.GetMessagesStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Today)
	assert.GreaterOrEqual(t, stats.ThisWeek, 1)

	require.NoError(t, r.SaveMeetingRequest("201", "Omar", "طلب", "تفاصيل", "جديد", ""))
	require.NoError(t, r.SaveMeetingRequest("202", "Sara", "طلب", "تفاصيل", "مكتمل", ""))
	mstats := r.GetMeetingsStats()
	assert.Equal(t, 2, mstats.Total)
	assert.Equal(t, 1, mstats.Pending)
	assert.Equal(t, 1, mstats.Completed)
}

func TestStatsBoundariesFollowLocalWallClock(t *testing.T) {
	r := newTestRecorder(t)
	cairo := time.FixedZone("EET", 2*60*60)

	// Sunday shortly after local midnight; the week starts here, not at
	// a UTC-aligned boundary two hours later.
	sunday := time.Date(2026, 3, 1, 1, 30, 0, 0, cairo)
	saturday := time.Date(2026, 2, 28, 10, 0, 0, 0, cairo)

	r.now = func() time.Time { return saturday }
	require.NoError(t, r.SaveMessage("201", "Omar", "يوم السبت", "", ""))
	r.now = func() time.Time { return sunday.Add(-30 * time.Minute) }
	require.NoError(t, r.SaveMessage("202", "Sara", "بعد منتصف الليل", "", ""))
	r.now = func() time.Time { return sunday }

	stats := r.GetMessagesStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Today)
	// Saturday belongs to the previous week.
	assert.Equal(t, 1, stats.ThisWeek)
}
