package sentiment

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Category
	}{
		{"positive cues win", "This service was great and helpful", Positive},
		{"negative cues win", "This was a terrible, awful delay", Negative},
		{"no cues", "The office is open on weekdays", Neutral},
		{"empty string", "", Neutral},
		{"equal counts tie to neutral", "The good service had a bad delay", Neutral},
		{"substring containment", "Staff were unhelpful about my problems", Neutral},
		{"strict majority positive", "Excellent, helpful and efficient, despite one problem", Positive},
		{"strict majority negative", "Slow, delayed and frustrating, though the clerk was helpful", Negative},
		{"repeated cue counts once", "bad bad bad but helpful and great", Positive},
		{"whitespace only", "   \n\t  ", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if Classify("GREAT SERVICE") != Classify("great service") {
		t.Error("Classification should ignore case")
	}
	if got := Classify("ABSOLUTELY TERRIBLE"); got != Negative {
		t.Errorf("Classify uppercase negative = %s, want Negative", got)
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{Positive, "Positive"},
		{Negative, "Negative"},
		{Neutral, "Neutral"},
		{Category(42), "Neutral"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestAnalyzerReturnsCategoryNames(t *testing.T) {
	var analyzer Analyzer

	tests := []struct {
		text string
		want string
	}{
		{"wonderful and efficient", "Positive"},
		{"useless and slow", "Negative"},
		{"the form has three pages", "Neutral"},
	}

	for _, tt := range tests {
		if got := analyzer.Analyze(tt.text); got != tt.want {
			t.Errorf("Analyze(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
