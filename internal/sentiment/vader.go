package sentiment

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/subpulse/internal/models"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the resulting markup so the
// lexicon sees words, not syntax.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(htmlTagPattern.ReplaceAllString(string(output), " "))
	plain = strings.Join(strings.Fields(plain), " ")

	return RemoveLinks(plain)
}

// VaderClassifier is an offline TextClassifier backed by the VADER lexicon. It
// needs no network or model files.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Classify maps the VADER compound score onto a binary label. The confidence is
// 0.5 + |compound|/2 so, like a two-class softmax, it never drops below 0.5.
func (v *VaderClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, err
	}

	compound := v.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	label := models.LabelPositive
	if compound < 0 {
		label = models.LabelNegative
	}
	return models.ClassificationResult{
		Label: label,
		Score: 0.5 + math.Abs(compound)/2,
	}, nil
}
