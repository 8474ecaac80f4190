package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/prompt-battle/llm"
	"github.com/Dosada05/prompt-battle/logger"
)

// Side identifies a battle participant in a verdict.
type Side string

const (
	SidePlayer1 Side = "player1"
	SidePlayer2 Side = "player2"
)

func (s Side) Valid() bool {
	return s == SidePlayer1 || s == SidePlayer2
}

// Rubric is the canonical score sheet used for both battles and solo runs.
type Rubric struct {
	Relevance  int    `json:"relevance"`
	Quality    int    `json:"quality"`
	Creativity int    `json:"creativity"`
	Clarity    int    `json:"clarity"`
	Adherence  int    `json:"adherence"`
	Comment    string `json:"comment,omitempty"`
}

// Total is the sum of the five axes, 0..100.
func (r Rubric) Total() int {
	return r.Relevance + r.Quality + r.Creativity + r.Clarity + r.Adherence
}

type BattleVerdict struct {
	Player1     Rubric `json:"player1"`
	Player2     Rubric `json:"player2"`
	Summary     string `json:"summary"`
	Winner      Side   `json:"winner,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
}

// ResolveWinner picks the winning side. An explicit valid winner from the
// model wins; otherwise the higher total; on equal totals, firstSubmitter.
func (v *BattleVerdict) ResolveWinner(firstSubmitter Side) Side {
	if v.Winner.Valid() {
		return v.Winner
	}
	t1, t2 := v.Player1.Total(), v.Player2.Total()
	switch {
	case t1 > t2:
		return SidePlayer1
	case t2 > t1:
		return SidePlayer2
	}
	if firstSubmitter.Valid() {
		return firstSubmitter
	}
	return SidePlayer1
}

type SoloVerdict struct {
	Rubric
	GoodExample string `json:"good_example,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
}

type TopicSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Options struct {
	// GenerateModel is used for player responses; empty means the client default.
	GenerateModel string
	// JudgeModel is used for verdicts and topic suggestions; empty means the client default.
	JudgeModel string
}

type Judge struct {
	llm  llm.Completer
	opts Options
	log  *logger.Logger
}

func New(completer llm.Completer, opts Options, log *logger.Logger) (*Judge, error) {
	if completer == nil {
		return nil, errors.New("judge: completer required")
	}
	if log == nil {
		return nil, errors.New("judge: logger required")
	}
	return &Judge{llm: completer, opts: opts, log: log.With("service", "Judge")}, nil
}

// Generate produces the model's answer to a player's prompt.
func (j *Judge) Generate(ctx context.Context, topic, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(topic) == "" {
		return "", errors.New("judge: topic and prompt are required")
	}
	text, err := j.llm.Complete(ctx, llm.Request{
		Model:       j.opts.GenerateModel,
		System:      generateSystemPrompt,
		User:        generateUserPrompt(topic, prompt),
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (j *Judge) CompareBattle(ctx context.Context, topic, response1, response2 string) (*BattleVerdict, error) {
	text, err := j.llm.Complete(ctx, llm.Request{
		Model:       j.opts.JudgeModel,
		System:      compareSystemPrompt,
		User:        compareUserPrompt(topic, response1, response2),
		Temperature: compareTemperature,
		MaxTokens:   compareMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("compare battle: %w", err)
	}
	verdict, err := parseBattleVerdict(text)
	if err != nil {
		j.log.Warn("battle verdict rejected", "error", err, "chars", len(text))
		return nil, err
	}
	return verdict, nil
}

func (j *Judge) ScoreSolo(ctx context.Context, topic, prompt, response string) (*SoloVerdict, error) {
	text, err := j.llm.Complete(ctx, llm.Request{
		Model:       j.opts.JudgeModel,
		System:      soloSystemPrompt,
		User:        soloUserPrompt(topic, prompt, response),
		Temperature: soloTemperature,
		MaxTokens:   soloMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("score solo: %w", err)
	}
	verdict, err := parseSoloVerdict(text)
	if err != nil {
		j.log.Warn("solo verdict rejected", "error", err, "chars", len(text))
		return nil, err
	}
	return verdict, nil
}

func (j *Judge) SuggestTopic(ctx context.Context) (*TopicSuggestion, error) {
	text, err := j.llm.Complete(ctx, llm.Request{
		Model:       j.opts.JudgeModel,
		System:      topicSystemPrompt,
		User:        topicUserPrompt,
		Temperature: topicTemperature,
		MaxTokens:   topicMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest topic: %w", err)
	}
	return parseTopicSuggestion(text)
}
