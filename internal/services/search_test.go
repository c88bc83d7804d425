package services

import (
	"testing"

	"github.com/opencivics/civicassist/pkg/models"
)

func fixtureServices() []models.Service {
	return []models.Service{
		{
			Name:        "Voter Registration",
			Category:    "Elections",
			Description: "Register to vote or update your address on the electoral roll.",
			Keywords:    []string{"vote", "voting", "election", "register"},
		},
		{
			Name:        "Waste Collection",
			Category:    "Environment",
			Description: "Weekly bin collection schedules and missed pickup reports.",
			Keywords:    []string{"trash", "bins", "recycling", "pickup"},
		},
		{
			Name:        "Road Maintenance",
			Category:    "Infrastructure",
			Description: "Report potholes, broken streetlights, and damaged signage.",
			Keywords:    []string{"pothole", "streetlight", "road", "repair"},
		},
		{
			Name:        "Public Library",
			Category:    "Community",
			Description: "Library membership, opening hours, and room bookings.",
			Keywords:    []string{"library", "books", "membership"},
		},
	}
}

func newFixtureSearcher() *Searcher {
	s := NewSearcher()
	s.Index(fixtureServices())
	return s
}

func TestSearchFindsRelevantService(t *testing.T) {
	s := newFixtureSearcher()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"voting question", "how do I register to vote", "Voter Registration"},
		{"pothole report", "report a pothole on my street", "Road Maintenance"},
		{"bin keyword", "when are bins collected", "Waste Collection"},
		{"library name word", "library opening hours", "Public Library"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := s.Search(tt.query, 3)
			if len(results) == 0 {
				t.Fatalf("Search(%q) returned nothing", tt.query)
			}
			if results[0].Name != tt.want {
				t.Errorf("Search(%q) top result = %q, want %q", tt.query, results[0].Name, tt.want)
			}
		})
	}
}

func TestSearchNoOverlapReturnsNothing(t *testing.T) {
	s := newFixtureSearcher()

	if results := s.Search("quantum chromodynamics seminar", 5); len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestSearchEmptyAndStopwordQueries(t *testing.T) {
	s := newFixtureSearcher()

	if results := s.Search("", 5); results != nil {
		t.Errorf("Empty query should return nil, got %v", results)
	}
	if results := s.Search("what is the", 5); results != nil {
		t.Errorf("Stopword-only query should return nil, got %v", results)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	s := newFixtureSearcher()

	// "report" appears in multiple descriptions.
	results := s.Search("report", 1)
	if len(results) > 1 {
		t.Errorf("Expected at most 1 result, got %d", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	s := NewSearcher()
	s.Index(nil)

	if results := s.Search("anything", 5); len(results) != 0 {
		t.Errorf("Empty index should return nothing, got %d", len(results))
	}
}

func TestIndexRebuildReplacesDocuments(t *testing.T) {
	s := newFixtureSearcher()

	s.Index([]models.Service{
		{Name: "Dog Licensing", Category: "Animals", Description: "Licence your dog.", Keywords: []string{"dog", "pet"}},
	})

	if results := s.Search("library hours", 5); len(results) != 0 {
		t.Errorf("Old documents should be gone after reindex, got %d results", len(results))
	}
	results := s.Search("licence my dog", 5)
	if len(results) != 1 || results[0].Name != "Dog Licensing" {
		t.Errorf("Reindexed search = %v", results)
	}
}
