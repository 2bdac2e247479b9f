// Package xlsxlog appends chat activity to three spreadsheet logs: every
// inbound message, detected meeting requests, and detected sales contacts.
// The files are plain xlsx workbooks so operators can open them directly.
package xlsxlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

const (
	messagesFile = "whatsapp_messages.xlsx"
	meetingsFile = "meeting_requests.xlsx"
	salesFile    = "sales_contacts.xlsx"

	messagesSheet = "رسائل الواتساب"
	meetingsSheet = "طلبات الاجتماعات"
	salesSheet    = "طلبات التواصل مع المبيعات"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	messagesHeader = []any{"التاريخ والوقت", "رقم الهاتف", "اسم المرسل", "الرسالة", "نوع الرسالة", "حالة الرد"}
	meetingsHeader = []any{"التاريخ والوقت", "رقم الهاتف", "اسم العميل", "نوع الطلب", "تفاصيل الطلب", "الحالة", "ملاحظات"}
	salesHeader    = []any{"التاريخ والوقت", "رقم الهاتف", "اسم العميل", "نوع الاستفسار", "تفاصيل الطلب", "حالة المتابعة", "ملاحظات"}
)

// MessagesStats summarizes the messages log.
type MessagesStats struct {
	Total    int `json:"total"`
	Today    int `json:"today"`
	ThisWeek int `json:"thisWeek"`
}

// MeetingsStats summarizes the meeting-requests log.
type MeetingsStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Recorder owns the three workbooks. Appends go through a per-file lock
// because each append is a read-modify-write of the whole workbook.
type Recorder struct {
	dataDir string
	logger  *logging.Logger
	now     func() time.Time

	messagesMu sync.Mutex
	meetingsMu sync.Mutex
	salesMu    sync.Mutex
}

// New prepares the recorder, creating any workbook that does not exist yet
// with its fixed header row.
func New(dataDir string, logger *logging.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Recorder{dataDir: dataDir, logger: logger, now: time.Now}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("xlsxlog: create data dir: %w", err)
	}
	if err := r.ensureWorkbook(messagesFile, messagesSheet, messagesHeader); err != nil {
		return nil, err
	}
	if err := r.ensureWorkbook(meetingsFile, meetingsSheet, meetingsHeader); err != nil {
		return nil, err
	}
	if err := r.ensureWorkbook(salesFile, salesSheet, salesHeader); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ensureWorkbook(name, sheet string, header []any) error {
	path := filepath.Join(r.dataDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("xlsxlog: stat %s: %w", name, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsxlog: create sheet %s: %w", sheet, err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsxlog: drop default sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsxlog: write header %s: %w", name, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsxlog: create %s: %w", name, err)
	}
	r.logger.Info("workbook created", "file", name)
	return nil
}

func (r *Recorder) appendRow(mu *sync.Mutex, name, sheet string, row []any) error {
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(r.dataDir, name)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("xlsxlog: open %s: %w", name, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("xlsxlog: read %s: %w", name, err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("xlsxlog: next row in %s: %w", name, err)
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("xlsxlog: append to %s: %w", name, err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("xlsxlog: save %s: %w", name, err)
	}
	return nil
}

// SaveMessage appends one inbound message to the messages log.
func (r *Recorder) SaveMessage(phone, sender, message, messageType, replyStatus string) error {
	if sender == "" {
		sender = "غير محدد"
	}
	if messageType == "" {
		messageType = "نص"
	}
	if replyStatus == "" {
		replyStatus = "تم الرد"
	}
	row := []any{r.now().Format(timeLayout), phone, sender, message, messageType, replyStatus}
	return r.appendRow(&r.messagesMu, messagesFile, messagesSheet, row)
}

// SaveMeetingRequest appends one row to the meeting-requests log.
func (r *Recorder) SaveMeetingRequest(phone, client, requestType, details, status, notes string) error {
	if client == "" {
		client = "غير محدد"
	}
	if status == "" {
		status = "جديد"
	}
	row := []any{r.now().Format(timeLayout), phone, client, requestType, details, status, notes}
	return r.appendRow(&r.meetingsMu, meetingsFile, meetingsSheet, row)
}

// SaveSalesContact appends one row to the sales-contacts log.
func (r *Recorder) SaveSalesContact(phone, client, inquiryType, details, followUpStatus, notes string) error {
	if client == "" {
		client = "غير محدد"
	}
	if followUpStatus == "" {
		followUpStatus = "جديد"
	}
	row := []any{r.now().Format(timeLayout), phone, client, inquiryType, details, followUpStatus, notes}
	return r.appendRow(&r.salesMu, salesFile, salesSheet, row)
}

// AutoSave records an inbound message and, when the text matches meeting or
// sales keywords, mirrors it into the matching request logs as well. A
// failure on one workbook does not stop writes to the others.
func (r *Recorder) AutoSave(phone, sender, message string) error {
	var firstErr error
	if err := r.SaveMessage(phone, sender, message, "", ""); err != nil {
		r.logger.Error("message log append failed", "error", err)
		firstErr = err
	}
	if IsMeetingRequest(message) {
		if err := r.SaveMeetingRequest(phone, sender, "طلب اجتماع من الواتساب", message, "جديد", "تم الحفظ تلقائياً من رسالة الواتساب"); err != nil {
			r.logger.Error("meeting log append failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if IsSalesContactRequest(message) {
		if err := r.SaveSalesContact(phone, sender, "استفسار من الواتساب", message, "جديد", "تم الحفظ تلقائياً من رسالة الواتساب"); err != nil {
			r.logger.Error("sales log append failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// MessagesFile returns the path of the messages workbook.
func (r *Recorder) MessagesFile() string { return filepath.Join(r.dataDir, messagesFile) }

// MeetingsFile returns the path of the meeting-requests workbook.
func (r *Recorder) MeetingsFile() string { return filepath.Join(r.dataDir, meetingsFile) }

// SalesContactsFile returns the path of the sales-contacts workbook.
func (r *Recorder) SalesContactsFile() string { return filepath.Join(r.dataDir, salesFile) }

// GetMessagesStats counts logged messages overall, today, and for the week
// starting Sunday.
func (r *Recorder) GetMessagesStats() MessagesStats {
	r.messagesMu.Lock()
	defer r.messagesMu.Unlock()

	rows, err := r.sheetRows(messagesFile, messagesSheet)
	if err != nil {
		r.logger.Error("messages stats read failed", "error", err)
		return MessagesStats{}
	}

	// Day boundaries follow the wall clock the rows were written with,
	// not UTC multiples of 24h.
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := today.AddDate(0, 0, -int(now.Weekday()))

	stats := MessagesStats{Total: len(rows)}
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		ts, err := time.ParseInLocation(timeLayout, row[0], now.Location())
		if err != nil {
			continue
		}
		if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
			stats.Today++
		}
		if !ts.Before(startOfWeek) {
			stats.ThisWeek++
		}
	}
	return stats
}

// GetMeetingsStats counts meeting requests by follow-up state.
func (r *Recorder) GetMeetingsStats() MeetingsStats {
	r.meetingsMu.Lock()
	defer r.meetingsMu.Unlock()

	rows, err := r.sheetRows(meetingsFile, meetingsSheet)
	if err != nil {
		r.logger.Error("meetings stats read failed", "error", err)
		return MeetingsStats{}
	}

	stats := MeetingsStats{Total: len(rows)}
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		status := row[5]
		switch {
		case strings.Contains(status, "جديد"), strings.Contains(status, "معلق"):
			stats.Pending++
		case strings.Contains(status, "مكتمل"), strings.Contains(status, "تم"):
			stats.Completed++
		}
	}
	return stats
}

// sheetRows returns the data rows of a workbook, header excluded. Callers
// hold the matching lock.
func (r *Recorder) sheetRows(name, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(filepath.Join(r.dataDir, name))
	if err != nil {
		return nil, fmt.Errorf("xlsxlog: open %s: %w", name, err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsxlog: read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}
