package services

import (
	"math"
	"sort"
	"strings"

	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/pkg/models"
)

// Searcher ranks directory services against free-text queries using
// TF-IDF weighted cosine similarity. Build it once from the seeded
// directory; it is read-only and safe for concurrent searches.
type Searcher struct {
	docs      []serviceDoc
	idf       map[string]float64
	vocab     map[string]int
	stopwords map[string]bool
}

type serviceDoc struct {
	service  models.Service
	text     string
	termFreq map[string]float64
}

// NewSearcher creates an empty search index.
func NewSearcher() *Searcher {
	return &Searcher{
		idf:       make(map[string]float64),
		vocab:     make(map[string]int),
		stopwords: buildStopwords(),
	}
}

func buildStopwords() map[string]bool {
	words := []string{
		"is", "the", "a", "an", "what", "how", "to", "do", "does",
		"can", "will", "where", "i", "my", "for", "of", "in", "and",
	}
	m := make(map[string]bool)
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Index rebuilds the search index from the services directory.
func (s *Searcher) Index(services []models.Service) {
	s.docs = make([]serviceDoc, 0, len(services))
	s.idf = make(map[string]float64)
	s.vocab = make(map[string]int)

	for _, svc := range services {
		// The name is the strongest signal; repeat it so its terms
		// dominate the frequency profile.
		nameRepeated := strings.Repeat(svc.Name+" ", 3)
		text := strings.Join([]string{
			nameRepeated,
			svc.Category,
			svc.Description,
			strings.Join(svc.Keywords, " "),
		}, " ")

		doc := serviceDoc{
			service:  svc,
			text:     strings.ToLower(text),
			termFreq: s.computeTermFreq(text),
		}
		for term := range doc.termFreq {
			s.vocab[term]++
		}
		s.docs = append(s.docs, doc)
	}

	numDocs := float64(len(s.docs))
	if numDocs == 0 {
		return
	}
	for term, docCount := range s.vocab {
		s.idf[term] = math.Log(numDocs / float64(docCount))
	}
}

// Search returns the best-matching services for the query, best
// first. Queries with no overlap return nothing.
func (s *Searcher) Search(query string, limit int) []models.Service {
	queryTF := s.computeTermFreq(query)
	if len(queryTF) == 0 {
		return nil
	}
	queryLower := strings.ToLower(query)

	type scored struct {
		service models.Service
		score   float64
	}
	results := make([]scored, 0, len(s.docs))

	for _, doc := range s.docs {
		score := s.cosineSimilarity(queryTF, doc.termFreq)
		score *= 1.0 + s.keywordBoost(doc.service, queryLower)
		if hasExactNameWord(queryLower, doc.service.Name) {
			score *= 1.5
		}
		if score > 0 {
			results = append(results, scored{service: doc.service, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	services := make([]models.Service, len(results))
	for i, r := range results {
		services[i] = r.service
	}
	return services
}

// keywordBoost rewards services whose curated keywords appear in the
// query text.
func (s *Searcher) keywordBoost(svc models.Service, queryLower string) float64 {
	boost := 0.0
	for _, keyword := range svc.Keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(queryLower, strings.ToLower(keyword)) {
			boost += 0.5
		}
	}
	return boost
}

// hasExactNameWord checks if the query contains a whole word from the
// service name.
func hasExactNameWord(queryLower, name string) bool {
	nameWords := strings.Fields(strings.ToLower(name))
	for _, queryWord := range strings.Fields(queryLower) {
		for _, nameWord := range nameWords {
			if queryWord == nameWord {
				return true
			}
		}
	}
	return false
}

// computeTermFreq calculates max-normalized term frequencies.
func (s *Searcher) computeTermFreq(text string) map[string]float64 {
	tokens := strings.Fields(strings.ToLower(text))

	counts := make(map[string]int)
	for _, token := range tokens {
		token = strings.Trim(token, ".,?!:;()\"'")
		if token == "" || s.stopwords[token] {
			continue
		}
		counts[token]++
	}

	maxCount := 0
	for _, count := range counts {
		if count > maxCount {
			maxCount = count
		}
	}

	tf := make(map[string]float64)
	if maxCount > 0 {
		for term, count := range counts {
			tf[term] = float64(count) / float64(maxCount)
		}
	}
	return tf
}

// cosineSimilarity computes cosine similarity with TF-IDF weighting.
// Terms unseen at index time get a neutral weight of 1.
func (s *Searcher) cosineSimilarity(tf1, tf2 map[string]float64) float64 {
	var dotProduct, norm1, norm2 float64

	allTerms := make(map[string]bool)
	for term := range tf1 {
		allTerms[term] = true
	}
	for term := range tf2 {
		allTerms[term] = true
	}

	for term := range allTerms {
		idf := s.idf[term]
		if idf == 0 {
			idf = 1
		}

		tfidf1 := tf1[term] * idf
		tfidf2 := tf2[term] * idf

		dotProduct += tfidf1 * tfidf2
		norm1 += tfidf1 * tfidf1
		norm2 += tfidf2 * tfidf2
	}

	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

var _ interfaces.ServiceSearcher = (*Searcher)(nil)
