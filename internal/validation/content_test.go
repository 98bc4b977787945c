package validation_test

import (
	"strings"
	"testing"

	"github.com/jonesrussell/newscope/internal/validation"
)

func TestIsValidArticleContent_ShortContentRejected(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"short",
		strings.Repeat("a", 49),
	}
	for _, input := range inputs {
		if validation.IsValidArticleContent(input) {
			t.Fatalf("expected content of %d chars to be rejected", len(input))
		}
	}
}

func TestIsValidArticleContent_ErrorPagePhrases(t *testing.T) {
	t.Parallel()

	filler := strings.Repeat("Some unrelated words to pad the body out past the length check. ", 10)
	phrases := []string{
		"Access Denied",
		"Please enable JavaScript to continue",
		"Checking your browser before accessing",
		"Just a moment...",
	}
	for _, phrase := range phrases {
		if validation.IsValidArticleContent(phrase + " " + filler) {
			t.Fatalf("expected content containing %q to be rejected", phrase)
		}
	}
}

func TestIsValidArticleContent_RealArticleAccepted(t *testing.T) {
	t.Parallel()

	content := "The city council voted on Tuesday to approve the new transit plan. " +
		"Officials said the project will take three years to complete. " +
		"Residents at the meeting raised concerns about construction noise. " +
		"The mayor promised regular updates as the work progresses."

	if !validation.IsValidArticleContent(content) {
		t.Fatal("expected multi-sentence article content to be accepted")
	}
}

func TestIsValidArticleContentMin_CustomMinimum(t *testing.T) {
	t.Parallel()

	content := "A first short sentence here. Then a second one follows. Next another arrives. Finally a third wraps it up."

	if !validation.IsValidArticleContentMin(content, 50) {
		t.Fatal("expected content to pass with lowered minimum")
	}
	if validation.IsValidArticleContentMin(content, 5000) {
		t.Fatal("expected content to fail with raised minimum")
	}
}

func TestMatchErrorPhrases_ReturnsMatches(t *testing.T) {
	t.Parallel()

	matches := validation.MatchErrorPhrases("Sorry, access denied. Cloudflare is checking your browser.")
	if len(matches) < 2 {
		t.Fatalf("expected at least two matched phrases, got %v", matches)
	}
}

func TestIsValidTitle_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"normal title", "Council Approves Transit Plan", true},
		{"too short", "Hi", false},
		{"placeholder", "Untitled", false},
		{"error placeholder", "Page Not Found", false},
		{"no word", "1234 5678", false},
		{"too long", strings.Repeat("word ", 150), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := validation.IsValidTitle(tt.title); got != tt.want {
				t.Fatalf("IsValidTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
