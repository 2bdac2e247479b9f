package store

import "strings"

type scoredListing struct {
	listing *Listing
	score   int
}

// Search ranks listings against a free-text query and applies the optional
// structured filters. With an empty query the filters alone decide
// membership and input order is preserved.
func (s *Store) Search(f SearchFilter) []*Listing {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(f.Query))
	var scored []scoredListing
	for _, l := range s.listings.Listings {
		if !matchesFilter(l, f) {
			continue
		}
		score := 0
		if term != "" {
			score = scoreListing(l, term)
			if score == 0 {
				continue
			}
		}
		cp := *l
		scored = append(scored, scoredListing{listing: &cp, score: score})
	}

	if term != "" {
		sortByScore(scored)
	}
	out := make([]*Listing, len(scored))
	for i, sc := range scored {
		out[i] = sc.listing
	}
	return out
}

func matchesFilter(l *Listing, f SearchFilter) bool {
	if f.Type != "" && !strings.EqualFold(l.Type, f.Type) {
		return false
	}
	if f.City != "" && !strings.EqualFold(l.Location.City, f.City) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	return true
}

// Field weights: title matches dominate, then property type, district,
// features, description, and amenities.
func scoreListing(l *Listing, term string) int {
	score := 0
	if strings.Contains(strings.ToLower(l.Title), term) {
		score += 10
	}
	if strings.Contains(strings.ToLower(l.Type), term) {
		score += 8
	}
	if strings.Contains(strings.ToLower(l.Location.District), term) ||
		strings.Contains(strings.ToLower(l.Location.City), term) {
		score += 7
	}
	if containsFold(l.Features, term) {
		score += 6
	}
	if strings.Contains(strings.ToLower(l.Description), term) {
		score += 5
	}
	if containsFold(l.Amenities, term) {
		score += 4
	}
	return score
}

func containsFold(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
