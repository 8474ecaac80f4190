package judge

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedReply is returned when the model answered but the answer
// could not be turned into a verdict.
var ErrMalformedReply = errors.New("judge: malformed model reply")

const (
	MinAxisScore = 0
	MaxAxisScore = 20
)

type rawRubric struct {
	Relevance  *float64 `json:"relevance"`
	Quality    *float64 `json:"quality"`
	Creativity *float64 `json:"creativity"`
	Clarity    *float64 `json:"clarity"`
	Adherence  *float64 `json:"adherence"`
	Comment    string   `json:"comment"`
}

type rawBattleVerdict struct {
	Player1     *rawRubric `json:"player1"`
	Player2     *rawRubric `json:"player2"`
	Summary     string     `json:"summary"`
	Winner      string     `json:"winner"`
	GoodExample string     `json:"good_example"`
	BadExample  string     `json:"bad_example"`
}

type rawSoloVerdict struct {
	rawRubric
	GoodExample string `json:"good_example"`
	BadExample  string `json:"bad_example"`
}

// stripCodeFence removes a leading ```lang line and the trailing ``` the
// model sometimes wraps JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func decodeReply(text string, dst any) error {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	if err := json.Unmarshal([]byte(cleaned), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

func axis(name string, v *float64) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedReply, name)
	}
	if math.IsNaN(*v) || *v < MinAxisScore || *v > MaxAxisScore {
		return 0, fmt.Errorf("%w: %s=%v out of range", ErrMalformedReply, name, *v)
	}
	return int(math.Floor(*v)), nil
}

func (r *rawRubric) toRubric() (Rubric, error) {
	if r == nil {
		return Rubric{}, fmt.Errorf("%w: missing rubric", ErrMalformedReply)
	}
	var (
		out Rubric
		err error
	)
	if out.Relevance, err = axis("relevance", r.Relevance); err != nil {
		return Rubric{}, err
	}
	if out.Quality, err = axis("quality", r.Quality); err != nil {
		return Rubric{}, err
	}
	if out.Creativity, err = axis("creativity", r.Creativity); err != nil {
		return Rubric{}, err
	}
	if out.Clarity, err = axis("clarity", r.Clarity); err != nil {
		return Rubric{}, err
	}
	if out.Adherence, err = axis("adherence", r.Adherence); err != nil {
		return Rubric{}, err
	}
	out.Comment = strings.TrimSpace(r.Comment)
	return out, nil
}

func parseBattleVerdict(text string) (*BattleVerdict, error) {
	var raw rawBattleVerdict
	if err := decodeReply(text, &raw); err != nil {
		return nil, err
	}
	p1, err := raw.Player1.toRubric()
	if err != nil {
		return nil, fmt.Errorf("player1: %w", err)
	}
	p2, err := raw.Player2.toRubric()
	if err != nil {
		return nil, fmt.Errorf("player2: %w", err)
	}
	return &BattleVerdict{
		Player1:     p1,
		Player2:     p2,
		Summary:     strings.TrimSpace(raw.Summary),
		Winner:      Side(strings.ToLower(strings.TrimSpace(raw.Winner))),
		GoodExample: strings.TrimSpace(raw.GoodExample),
		BadExample:  strings.TrimSpace(raw.BadExample),
	}, nil
}

func parseSoloVerdict(text string) (*SoloVerdict, error) {
	var raw rawSoloVerdict
	if err := decodeReply(text, &raw); err != nil {
		return nil, err
	}
	rubric, err := raw.rawRubric.toRubric()
	if err != nil {
		return nil, err
	}
	return &SoloVerdict{
		Rubric:      rubric,
		GoodExample: strings.TrimSpace(raw.GoodExample),
		BadExample:  strings.TrimSpace(raw.BadExample),
	}, nil
}

func parseTopicSuggestion(text string) (*TopicSuggestion, error) {
	var out TopicSuggestion
	if err := decodeReply(text, &out); err != nil {
		return nil, err
	}
	out.Title = strings.TrimSpace(out.Title)
	out.Description = strings.TrimSpace(out.Description)
	if out.Title == "" || out.Description == "" {
		return nil, fmt.Errorf("%w: incomplete topic", ErrMalformedReply)
	}
	return &out, nil
}
