// Package recommend scores phase-tagged recommendation templates against a
// user's feedback history. Templates come from a static YAML rule pack loaded
// once at boot; scoring is a pure lookup plus a recency bonus, no model.
package recommend

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowiq/flowiq-api/internal/domain"
)

//go:embed rules.yaml
var defaultPack []byte

// Pack loading errors
var (
	ErrNoTemplates       = errors.New("recommendation pack contains no templates")
	ErrDuplicateTemplate = errors.New("duplicate template ID in recommendation pack")
	ErrUnknownPhase      = errors.New("unknown cycle phase in recommendation pack")
	ErrInvalidBaseScore  = errors.New("template base score must be between 0 and 1")
	ErrMissingField      = errors.New("template is missing a required field")
)

// Template is a single recommendation in the rule pack.
type Template struct {
	ID        string   `yaml:"id"`
	Phase     string   `yaml:"phase"`
	Title     string   `yaml:"title"`
	Body      string   `yaml:"body"`
	Tags      []string `yaml:"tags"`
	BaseScore float64  `yaml:"score"`
}

// packFile is the YAML root structure.
type packFile struct {
	Templates []Template `yaml:"templates"`
}

// Recommendation is a scored template ready to present.
type Recommendation struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Score float64  `json:"score"`
}

// Engine holds the loaded rule pack and scores it against feedback.
type Engine struct {
	byPhase map[domain.CyclePhase][]Template
	byID    map[string]Template
	params  *Params
	logger  *slog.Logger
}

// NewEngine loads the rule pack at path, falling back to the embedded
// default pack when path is empty. A missing explicit path is an error;
// the recommendations endpoint cannot run without its templates.
func NewEngine(path string, params *Params, logger *slog.Logger) (*Engine, error) {
	data := defaultPack
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read recommendation pack: %w", err)
		}
		data = b
	}

	return newEngineFromBytes(data, params, logger)
}

func newEngineFromBytes(data []byte, params *Params, logger *slog.Logger) (*Engine, error) {
	var cfg packFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse recommendation pack: %w", err)
	}

	if len(cfg.Templates) == 0 {
		return nil, ErrNoTemplates
	}

	if params == nil {
		params = NewDefaultParams()
	}
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		byPhase: make(map[domain.CyclePhase][]Template),
		byID:    make(map[string]Template, len(cfg.Templates)),
		params:  params,
		logger:  logger.With(slog.String("component", "recommend_engine")),
	}

	for _, tmpl := range cfg.Templates {
		if tmpl.ID == "" || tmpl.Title == "" {
			return nil, fmt.Errorf("%w: %+v", ErrMissingField, tmpl)
		}
		if _, dup := engine.byID[tmpl.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, tmpl.ID)
		}

		phase := domain.CyclePhase(tmpl.Phase)
		if !phase.IsValid() {
			return nil, fmt.Errorf("%w: %q on template %s", ErrUnknownPhase, tmpl.Phase, tmpl.ID)
		}

		if tmpl.BaseScore < 0 || tmpl.BaseScore > 1 {
			return nil, fmt.Errorf("%w: %s has %f", ErrInvalidBaseScore, tmpl.ID, tmpl.BaseScore)
		}

		engine.byID[tmpl.ID] = tmpl
		engine.byPhase[phase] = append(engine.byPhase[phase], tmpl)
	}

	engine.logger.Debug("recommendation pack loaded",
		slog.Int("template_count", len(engine.byID)),
		slog.Int("phase_count", len(engine.byPhase)))

	return engine, nil
}

// Recommend scores the templates of the given phase against the user's
// feedback and returns them ordered by relevance.
//
// Scoring:
//   - each template starts from its base score;
//   - positive feedback within the lookback window adds a bonus to every
//     template sharing a tag with the template the feedback was given on,
//     decaying linearly with the feedback's age and capped at MaxBonus;
//   - a template with negative feedback inside the window is dropped.
//
// Results are ordered by score descending; equal scores fall back to
// template ID so the order is deterministic.
func (e *Engine) Recommend(phase domain.CyclePhase, feedback []*domain.RecommendationFeedback, now time.Time) []Recommendation {
	if e == nil {
		return nil
	}

	lookback := time.Duration(e.params.LookbackDays) * 24 * time.Hour

	suppressed := make(map[string]struct{})
	var positives []*domain.RecommendationFeedback
	for _, fb := range feedback {
		if fb == nil {
			continue
		}
		age := now.Sub(fb.CreatedAt)
		if age < 0 || age > lookback {
			continue
		}
		if fb.Helpful {
			positives = append(positives, fb)
		} else {
			suppressed[fb.RecommendationID] = struct{}{}
		}
	}

	templates := e.byPhase[phase]
	recommendations := make([]Recommendation, 0, len(templates))
	for _, tmpl := range templates {
		if _, drop := suppressed[tmpl.ID]; drop {
			continue
		}

		var bonus float64
		for _, fb := range positives {
			source, known := e.byID[fb.RecommendationID]
			if !known || !sharesTag(source.Tags, tmpl.Tags) {
				continue
			}

			weight := 1 - now.Sub(fb.CreatedAt).Hours()/lookback.Hours()
			bonus += e.params.FeedbackBonus * weight
		}
		if bonus > e.params.MaxBonus {
			bonus = e.params.MaxBonus
		}

		recommendations = append(recommendations, Recommendation{
			ID:    tmpl.ID,
			Title: tmpl.Title,
			Body:  tmpl.Body,
			Tags:  tmpl.Tags,
			Score: tmpl.BaseScore + bonus,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Score == recommendations[j].Score {
			return recommendations[i].ID < recommendations[j].ID
		}
		return recommendations[i].Score > recommendations[j].Score
	})

	return recommendations
}

// Known reports whether a template with the given ID exists in the pack.
// The feedback endpoint rejects feedback on IDs that were never served.
func (e *Engine) Known(id string) bool {
	if e == nil {
		return false
	}
	_, ok := e.byID[id]
	return ok
}

// Lookback returns how far back feedback still moves scores. Callers use
// it to bound how much feedback history they load before scoring.
func (e *Engine) Lookback() time.Duration {
	if e == nil {
		return 0
	}
	return time.Duration(e.params.LookbackDays) * 24 * time.Hour
}

// sharesTag reports whether the two tag sets intersect.
func sharesTag(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}
