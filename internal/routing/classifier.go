package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
)

const analysisCacheSize = 256

// Classifier maps a request plus build context to a task analysis. The
// classification is deterministic and side-effect-free; results are cached
// by content hash since agents frequently re-ask about the same artifact.
type Classifier struct {
	cache *lru.Cache[string, TaskAnalysis]

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewClassifier creates a classifier with a warm analysis cache.
func NewClassifier() *Classifier {
	cache, _ := lru.New[string, TaskAnalysis](analysisCacheSize)
	return &Classifier{cache: cache}
}

var trivialMarkers = []string{
	"rename", "typo", "fix import", "add comment", "remove unused",
	"change the color", "update the label", "bump",
}

var debugMarkers = []string{
	"bug", "error", "fix", "broken", "crash", "doesn't work", "does not work",
	"failing", "exception", "undefined", "null pointer",
}

var reviewMarkers = []string{
	"review", "critique", "compare", "which approach", "pros and cons",
	"evaluate", "assess",
}

var architectureMarkers = []string{
	"architecture", "data model", "schema", "api design", "system design",
	"migration", "security", "authentication design", "state management approach",
}

var designMarkers = []string{
	"design", "layout", "ui", "ux", "style", "theme", "responsive",
	"animation", "look and feel",
}

var criticalMarkers = []string{
	"payment", "billing", "auth", "security", "migration", "irreversible",
	"production", "data loss", "delete",
}

// Analyze classifies one request. Force fields short-circuit the matching
// heuristic but never the rest of the analysis.
func (c *Classifier) Analyze(req TaskRequest) TaskAnalysis {
	key := analysisKey(req)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	prompt := strings.ToLower(req.Prompt)
	tokens := c.estimateTokens(req.Prompt + req.Context)

	taskType := TaskFeatureBuild
	switch {
	case containsAny(prompt, architectureMarkers):
		taskType = TaskArchitecture
	case containsAny(prompt, reviewMarkers):
		taskType = TaskCodeReview
	// Trivial markers win over debug markers: "fix the typo" is an edit,
	// not a debugging session, even though "fix" alone reads like one.
	case containsAny(prompt, trivialMarkers) && tokens < 600:
		taskType = TaskTrivialEdit
	case containsAny(prompt, debugMarkers):
		taskType = TaskDebugging
	}

	complexity := req.ForceComplexity
	if complexity == "" {
		complexity = complexityFor(taskType, len(req.Prompt), tokens)
	}

	critical := taskType == TaskArchitecture || containsAny(prompt, criticalMarkers)
	designHeavy := containsAny(prompt, designMarkers)

	analysis := TaskAnalysis{
		Type:        taskType,
		Complexity:  complexity,
		DesignHeavy: designHeavy,
		Critical:    critical,
		Tokens:      tokens,
		ForceModel:  req.ForceModel,
		Reason: fmt.Sprintf("type=%s complexity=%s tokens=%d design_heavy=%t critical=%t",
			taskType, complexity, tokens, designHeavy, critical),
	}
	c.cache.Add(key, analysis)
	return analysis
}

func complexityFor(taskType TaskType, promptLen, tokens int) Complexity {
	switch taskType {
	case TaskTrivialEdit:
		return ComplexityTrivial
	case TaskArchitecture:
		return ComplexityComplex
	case TaskCodeReview:
		return ComplexityModerate
	}
	switch {
	case promptLen < 120 && tokens < 400:
		return ComplexitySimple
	case tokens > 4000:
		return ComplexityComplex
	default:
		return ComplexityModerate
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// estimateTokens counts cl100k tokens, falling back to a chars/4 estimate
// when the encoding is unavailable (offline environments).
func (c *Classifier) estimateTokens(text string) int {
	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return len(text) / 4
}

func analysisKey(req TaskRequest) string {
	sum := sha256.Sum256([]byte(req.Prompt + "\x00" + req.Context + "\x00" +
		string(req.ForceComplexity) + "\x00" + req.ForceModel))
	return hex.EncodeToString(sum[:16])
}
