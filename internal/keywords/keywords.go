// Package keywords builds a word-frequency profile of the episode corpus for
// listing and tag selection.
package keywords

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"resound/internal/catalog"
	"resound/internal/logging"
)

var stopWords = map[string]struct{}{}

func init() {
	list := []string{
		"and", "are", "be", "by", "for", "from", "has", "he", "in", "is",
		"it", "its", "of", "on", "that", "the", "to", "was", "will", "with",
		"would", "you", "your", "me", "my", "myself", "we", "our", "ours",
		"ourselves", "yours", "yourself", "yourselves", "him", "his",
		"himself", "she", "her", "hers", "herself", "itself", "they", "them",
		"their", "theirs", "themselves", "what", "which", "who", "whom",
		"this", "these", "those", "am", "were", "being", "been", "have",
		"had", "having", "do", "does", "did", "doing", "should", "could",
		"ought", "im", "youre", "hes", "shes", "theyre", "ive", "youve",
		"weve", "theyve", "id", "youd", "hed", "shed", "wed", "theyd",
		"ill", "youll", "hell", "shell", "well", "theyll", "isnt", "arent",
		"wasnt", "werent", "hasnt", "havent", "hadnt", "wont", "wouldnt",
		"dont", "doesnt", "didnt", "cant", "couldnt", "shouldnt", "mustnt",
		"was", "not", "but",
	}
	for _, w := range list {
		stopWords[w] = struct{}{}
	}
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

// ExtractWords returns the unique meaningful words of a text: lowercased,
// letters only, stop-word filtered, three letters or longer.
func ExtractWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	if text == "" {
		return words
	}
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) < 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

// Analysis is the persisted result document.
type Analysis struct {
	Metadata struct {
		TotalUniqueWords int       `yaml:"total_unique_words"`
		AnalysisDate     time.Time `yaml:"analysis_date"`
		EpisodesAnalyzed int       `yaml:"episodes_analyzed"`
	} `yaml:"metadata"`
	WordFrequencies map[string]int `yaml:"word_frequencies"`
}

// Analyzer computes corpus-wide word frequencies from the catalog.
type Analyzer struct {
	view   *catalog.View
	logger *slog.Logger
}

// NewAnalyzer builds an analyzer over the catalog view.
func NewAnalyzer(view *catalog.View, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{view: view, logger: logging.NewComponentLogger(logger, "keywords")}
}

// Analyze counts how many episode fields each word appears in. Words repeat
// per field, not per occurrence: a word used fifty times in one transcript
// still counts once for that transcript.
func (a *Analyzer) Analyze() *Analysis {
	frequencies := make(map[string]int)
	episodes := 0
	for _, item := range a.view.All() {
		episodes++
		for _, text := range []string{item.FullText, item.Text.TranscriptText, item.Title, item.Description} {
			for word := range ExtractWords(text) {
				frequencies[word]++
			}
		}
	}

	analysis := &Analysis{WordFrequencies: frequencies}
	analysis.Metadata.TotalUniqueWords = len(frequencies)
	analysis.Metadata.AnalysisDate = time.Now().UTC()
	analysis.Metadata.EpisodesAnalyzed = episodes
	return analysis
}

// Top returns the n most frequent words in descending order, ties broken
// alphabetically.
func (an *Analysis) Top(n int) []string {
	words := make([]string, 0, len(an.WordFrequencies))
	for word := range an.WordFrequencies {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		fi, fj := an.WordFrequencies[words[i]], an.WordFrequencies[words[j]]
		if fi != fj {
			return fi > fj
		}
		return words[i] < words[j]
	})
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// Save writes the analysis to <stateRoot>/keywords/keywords.yaml and returns
// the path written.
func (a *Analyzer) Save(analysis *Analysis, stateRoot string) (string, error) {
	dir := filepath.Join(stateRoot, "keywords")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create keywords directory: %w", err)
	}

	data, err := yaml.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("marshal keyword analysis: %w", err)
	}
	path := filepath.Join(dir, "keywords.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write keyword analysis: %w", err)
	}

	a.logger.Info("keyword analysis saved",
		logging.String("path", path),
		logging.Int("unique_words", analysis.Metadata.TotalUniqueWords))
	return path, nil
}
