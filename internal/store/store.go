package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// File names under the data directory. The listings file keeps its legacy
// name so existing deployments pick up their data unchanged.
const (
	businessFile = "business.json"
	listingsFile = "products.json"
	scheduleFile = "appointments.json"
)

type businessDoc struct {
	BusinessInfo *BusinessProfile `json:"businessInfo"`
}

type listingsDoc struct {
	Listings []*Listing `json:"properties"`
}

type scheduleDoc struct {
	Appointments []*Appointment `json:"appointments"`
	Inquiries    []*Inquiry     `json:"inquiries"`
}

// Store persists the business profile, property listings, and scheduling
// records as three independent JSON documents. Each document has its own
// lock, so listing churn never blocks appointment writes.
type Store struct {
	dataDir string
	logger  *logging.Logger

	defaultCountryCode  string
	adminFallbackNumber string

	businessMu sync.RWMutex
	business   businessDoc

	listingsMu sync.RWMutex
	listings   listingsDoc

	scheduleMu sync.RWMutex
	schedule   scheduleDoc

	now func() time.Time
}

// ErrNotFound reports a lookup against an id that is not in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID reports an add with an id the store already holds.
var ErrDuplicateID = errors.New("duplicate id")

// Option configures a Store.
type Option func(*Store)

// WithPhoneDefaults sets the country code used to normalize local phone
// numbers and the fallback admin number used when none are configured.
func WithPhoneDefaults(countryCode, fallbackNumber string) Option {
	return func(s *Store) {
		s.defaultCountryCode = countryCode
		s.adminFallbackNumber = fallbackNumber
	}
}

// WithClock overrides the time source, used by tests for stable ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens the store rooted at dataDir, creating the directory if needed
// and loading whichever documents already exist. Missing documents are not
// an error; they are created on first write.
func New(dataDir string, logger *logging.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{
		dataDir:            dataDir,
		logger:             logger,
		defaultCountryCode: "20",
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	if err := loadDoc(filepath.Join(dataDir, businessFile), &s.business); err != nil {
		return nil, fmt.Errorf("store: load business: %w", err)
	}
	if err := loadDoc(filepath.Join(dataDir, listingsFile), &s.listings); err != nil {
		return nil, fmt.Errorf("store: load listings: %w", err)
	}
	if err := loadDoc(filepath.Join(dataDir, scheduleFile), &s.schedule); err != nil {
		return nil, fmt.Errorf("store: load appointments: %w", err)
	}

	logger.Info("store loaded",
		"data_dir", dataDir,
		"listings", len(s.listings.Listings),
		"appointments", len(s.schedule.Appointments),
		"inquiries", len(s.schedule.Inquiries))
	return s, nil
}

func loadDoc(path string, v any) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveDoc writes v to a temp file in the same directory and renames it over
// the target, so a failed write never corrupts the document being served.
func (s *Store) saveDoc(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	path := filepath.Join(s.dataDir, name)
	tmp, err := os.CreateTemp(s.dataDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: stage %s: %w", name, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: stage %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: stage %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: replace %s: %w", name, err)
	}
	return nil
}

// Business returns a copy of the business profile, or nil if none is set.
func (s *Store) Business() *BusinessProfile {
	s.businessMu.RLock()
	defer s.businessMu.RUnlock()
	if s.business.BusinessInfo == nil {
		return nil
	}
	cp := *s.business.BusinessInfo
	return &cp
}

// UpdateBusiness merges the given profile over the stored one and persists
// the result.
func (s *Store) UpdateBusiness(info BusinessProfile) error {
	s.businessMu.Lock()
	defer s.businessMu.Unlock()
	s.business.BusinessInfo = &info
	if err := s.saveDoc(businessFile, &s.business); err != nil {
		return err
	}
	s.logger.Info("business profile updated", "name", info.Name)
	return nil
}

// AdminNumbers returns the configured admin notification numbers, split
// from the profile's newline-separated field and normalized to full
// international form. Falls back to the configured fallback number when
// the profile lists none.
func (s *Store) AdminNumbers() []string {
	s.businessMu.RLock()
	raw := ""
	if s.business.BusinessInfo != nil {
		raw = s.business.BusinessInfo.AdminNumbers
	}
	s.businessMu.RUnlock()

	var numbers []string
	for _, line := range strings.Split(raw, "\n") {
		if n := NormalizePhone(line, s.defaultCountryCode); n != "" {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 && s.adminFallbackNumber != "" {
		if n := NormalizePhone(s.adminFallbackNumber, s.defaultCountryCode); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// NormalizePhone strips non-digits and prefixes the country code when the
// number looks local (leading zero or bare subscriber number).
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if countryCode == "" || strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + strings.TrimPrefix(digits, "0")
}

// Listings returns a copy of all listings.
func (s *Store) Listings() []*Listing {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()
	return copyListings(s.listings.Listings)
}

func copyListings(in []*Listing) []*Listing {
	out := make([]*Listing, len(in))
	for i, l := range in {
		cp := *l
		out[i] = &cp
	}
	return out
}

// ListingByID returns a copy of the listing with the given id, or nil.
func (s *Store) ListingByID(id string) *Listing {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()
	if l := s.findListing(id); l != nil {
		cp := *l
		return &cp
	}
	return nil
}

func (s *Store) findListing(id string) *Listing {
	for _, l := range s.listings.Listings {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// AddListing persists a new listing. A missing id is generated from the
// title; missing status, date, and counters get defaults.
func (s *Store) AddListing(l Listing) (*Listing, error) {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	if l.ID == "" {
		l.ID = slugID(l.Title, s.now())
	}
	if s.findListing(l.ID) != nil {
		return nil, fmt.Errorf("store: listing %q: %w", l.ID, ErrDuplicateID)
	}
	if l.Status == "" {
		l.Status = StatusAvailable
	}
	if l.AddedDate == "" {
		l.AddedDate = s.now().Format("2006-01-02")
	}

	s.listings.Listings = append(s.listings.Listings, &l)
	if err := s.saveDoc(listingsFile, &s.listings); err != nil {
		s.listings.Listings = s.listings.Listings[:len(s.listings.Listings)-1]
		return nil, err
	}
	s.logger.Info("listing added", "id", l.ID, "title", l.Title)
	cp := l
	return &cp, nil
}

// UpdateListing applies the given field changes to an existing listing.
// Changes map keys follow the listing's JSON field names.
func (s *Store) UpdateListing(id string, changes map[string]any) (*Listing, error) {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	target := s.findListing(id)
	if target == nil {
		return nil, fmt.Errorf("store: listing %q: %w", id, ErrNotFound)
	}

	prev := *target
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("store: encode listing changes: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		*target = prev
		return nil, fmt.Errorf("store: apply listing changes: %w", err)
	}
	target.ID = id

	if err := s.saveDoc(listingsFile, &s.listings); err != nil {
		*target = prev
		return nil, err
	}
	s.logger.Info("listing updated", "id", id)
	cp := *target
	return &cp, nil
}

// DeleteListing removes the listing with the given id.
func (s *Store) DeleteListing(id string) error {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	idx := -1
	for i, l := range s.listings.Listings {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("store: listing %q: %w", id, ErrNotFound)
	}

	prev := s.listings.Listings
	s.listings.Listings = append(append([]*Listing{}, prev[:idx]...), prev[idx+1:]...)
	if err := s.saveDoc(listingsFile, &s.listings); err != nil {
		s.listings.Listings = prev
		return err
	}
	s.logger.Info("listing deleted", "id", id)
	return nil
}

// IncrementViews bumps the view counter of a listing. Unknown ids are
// ignored.
func (s *Store) IncrementViews(id string) error {
	return s.bumpCounter(id, func(l *Listing) { l.Views++ })
}

// IncrementInquiries bumps the inquiry counter of a listing. Unknown ids
// are ignored.
func (s *Store) IncrementInquiries(id string) error {
	return s.bumpCounter(id, func(l *Listing) { l.Inquiries++ })
}

func (s *Store) bumpCounter(id string, bump func(*Listing)) error {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()
	target := s.findListing(id)
	if target == nil {
		return nil
	}
	prev := *target
	bump(target)
	if err := s.saveDoc(listingsFile, &s.listings); err != nil {
		*target = prev
		return err
	}
	return nil
}

// Stats summarizes the listings collection.
func (s *Store) Stats() ListingStats {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	var st ListingStats
	var priceSum float64
	types := map[string]struct{}{}
	cities := map[string]struct{}{}
	for _, l := range s.listings.Listings {
		st.Total++
		switch l.Status {
		case StatusAvailable:
			st.Available++
		case StatusReserved:
			st.Reserved++
		case StatusSold:
			st.Sold++
		}
		st.TotalViews += l.Views
		st.TotalInquiry += l.Inquiries
		priceSum += l.Price
		if l.Type != "" {
			types[l.Type] = struct{}{}
		}
		if l.Location.City != "" {
			cities[l.Location.City] = struct{}{}
		}
	}
	if st.Total > 0 {
		st.AveragePrice = priceSum / float64(st.Total)
	}
	st.Types = sortedKeys(types)
	st.Cities = sortedKeys(cities)
	return st
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Appointments returns a copy of all appointments.
func (s *Store) Appointments() []*Appointment {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()
	out := make([]*Appointment, len(s.schedule.Appointments))
	for i, a := range s.schedule.Appointments {
		cp := *a
		out[i] = &cp
	}
	return out
}

// Inquiries returns a copy of all inquiries.
func (s *Store) Inquiries() []*Inquiry {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()
	out := make([]*Inquiry, len(s.schedule.Inquiries))
	for i, q := range s.schedule.Inquiries {
		cp := *q
		out[i] = &cp
	}
	return out
}

// AddAppointment persists a new appointment, filling in id, status, and
// creation time when absent.
func (s *Store) AddAppointment(a Appointment) (*Appointment, error) {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	if a.ID == "" {
		a.ID = fmt.Sprintf("apt-%d", s.now().UnixMilli())
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}

	s.schedule.Appointments = append(s.schedule.Appointments, &a)
	if err := s.saveDoc(scheduleFile, &s.schedule); err != nil {
		s.schedule.Appointments = s.schedule.Appointments[:len(s.schedule.Appointments)-1]
		return nil, err
	}
	s.logger.Info("appointment added", "id", a.ID, "client", a.ClientName)
	cp := a
	return &cp, nil
}

// AddInquiry persists a new inquiry, filling in id, status, and creation
// time when absent.
func (s *Store) AddInquiry(q Inquiry) (*Inquiry, error) {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	if q.ID == "" {
		q.ID = fmt.Sprintf("inq-%d", s.now().UnixMilli())
	}
	if q.Status == "" {
		q.Status = InquiryStatusNew
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}

	s.schedule.Inquiries = append(s.schedule.Inquiries, &q)
	if err := s.saveDoc(scheduleFile, &s.schedule); err != nil {
		s.schedule.Inquiries = s.schedule.Inquiries[:len(s.schedule.Inquiries)-1]
		return nil, err
	}
	s.logger.Info("inquiry added", "id", q.ID, "client", q.ClientName)
	cp := q
	return &cp, nil
}

// UpdateAppointmentStatus changes the status of an existing appointment.
func (s *Store) UpdateAppointmentStatus(id, status string) error {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()
	for _, a := range s.schedule.Appointments {
		if a.ID == id {
			prev := a.Status
			a.Status = status
			if err := s.saveDoc(scheduleFile, &s.schedule); err != nil {
				a.Status = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("store: appointment %q: %w", id, ErrNotFound)
}

// UpdateInquiryStatus changes the status of an existing inquiry.
func (s *Store) UpdateInquiryStatus(id, status string) error {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()
	for _, q := range s.schedule.Inquiries {
		if q.ID == id {
			prev := q.Status
			q.Status = status
			if err := s.saveDoc(scheduleFile, &s.schedule); err != nil {
				q.Status = prev
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("store: inquiry %q: %w", id, ErrNotFound)
}

// slugID builds a listing id from the title plus a millisecond timestamp,
// mirroring the ids already present in production data files.
func slugID(title string, now time.Time) string {
	lower := strings.ToLower(title)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	if slug == "" {
		slug = "listing"
	}
	return fmt.Sprintf("%s-%d", slug, now.UnixMilli())
}

// sortByScore is shared by search; kept here so search.go stays focused on
// scoring.
func sortByScore(scored []scoredListing) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
}
