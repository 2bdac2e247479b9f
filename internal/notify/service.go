// Package notify delivers operator notifications for qualifying business
// events: new appointments and inquiries go to every configured admin
// number over chat, and optionally to an email address.
package notify

import (
	"context"
	"fmt"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// ChatSender is the outbound slice of the session layer.
type ChatSender interface {
	Connected() bool
	SendText(ctx context.Context, chat, text string, showTyping bool) error
}

// AdminDirectory yields the current admin notification numbers.
type AdminDirectory interface {
	AdminNumbers() []string
}

// Service fans notifications out to the operators. Per-recipient failures
// are logged and skipped so one bad number never blocks the rest, and a
// send failure never fails the event that triggered it.
type Service struct {
	sender ChatSender
	admins AdminDirectory
	email  EmailSender
	to     string
	logger *logging.Logger
}

// New builds the notification service. email and adminEmail may be empty.
func New(sender ChatSender, admins AdminDirectory, email EmailSender, adminEmail string, logger *logging.Logger) *Service {
	if sender == nil {
		panic("notify: chat sender cannot be nil")
	}
	if admins == nil {
		panic("notify: admin directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender: sender,
		admins: admins,
		email:  email,
		to:     adminEmail,
		logger: logger,
	}
}

// NotifyAppointment tells the operators about a new appointment.
func (s *Service) NotifyAppointment(ctx context.Context, a *store.Appointment) {
	notes := a.Notes
	if notes == "" {
		notes = "لا توجد"
	}
	listing := a.ListingID
	if listing == "" {
		listing = "غير محدد"
	}
	message := fmt.Sprintf("🗓️ موعد جديد مجدول\n\n"+
		"👤 العميل: %s\n📱 الهاتف: %s\n📅 التاريخ: %s\n⏰ الوقت: %s\n"+
		"📝 الملاحظات: %s\n🏠 العقار المطلوب: %s\n\n"+
		"يرجى التواصل مع العميل لتأكيد الموعد.",
		a.ClientName, a.ClientPhone, a.Date, a.Time, notes, listing)

	s.broadcast(ctx, message)
	s.mail(ctx, "موعد جديد: "+a.ClientName, message)
}

// NotifyInquiry tells the operators about a new inquiry.
func (s *Service) NotifyInquiry(ctx context.Context, q *store.Inquiry) {
	listing := q.ListingID
	if listing == "" {
		listing = "غير محدد"
	}
	message := fmt.Sprintf("❓ استفسار جديد\n\n"+
		"👤 العميل: %s\n📱 الهاتف: %s\n📝 الاستفسار: %s\n🏠 العقار: %s\n⏰ الوقت: %s\n\n"+
		"يرجى الرد على العميل في أقرب وقت.",
		q.ClientName, q.ClientPhone, q.Message, listing, q.CreatedAt.Format("2006-01-02 15:04"))

	s.broadcast(ctx, message)
	s.mail(ctx, "استفسار جديد: "+q.ClientName, message)
}

func (s *Service) broadcast(ctx context.Context, message string) {
	if !s.sender.Connected() {
		s.logger.Warn("admin notification skipped, session not connected")
		return
	}
	numbers := s.admins.AdminNumbers()
	if len(numbers) == 0 {
		s.logger.Warn("admin notification skipped, no admin numbers configured")
		return
	}
	for _, number := range numbers {
		if err := s.sender.SendText(ctx, number, message, false); err != nil {
			s.logger.Error("admin notification failed", "number", number, "error", err)
			continue
		}
		s.logger.Info("admin notified", "number", number)
	}
}

func (s *Service) mail(ctx context.Context, subject, body string) {
	if s.email == nil || s.to == "" {
		return
	}
	if err := s.email.Send(ctx, EmailMessage{To: s.to, Subject: subject, Body: body}); err != nil {
		s.logger.Error("admin email failed", "error", err)
	}
}
