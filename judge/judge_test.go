package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dosada05/prompt-battle/llm"
	"github.com/Dosada05/prompt-battle/logger"
)

type scriptedCompleter struct {
	replies []string
	err     error
	calls   []llm.Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", llm.ErrEmptyCompletion
	}
	out := s.replies[0]
	s.replies = s.replies[1:]
	return out, nil
}

func newJudge(t *testing.T, c llm.Completer) *Judge {
	t.Helper()
	j, err := New(c, Options{JudgeModel: "judge-model"}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return j
}

const battleReply = "```json\n" + `{
  "player1": {"relevance": 15, "quality": 14.7, "creativity": 12, "clarity": 18, "adherence": 10, "comment": "solid"},
  "player2": {"relevance": 10, "quality": 10, "creativity": 10, "clarity": 10, "adherence": 10, "comment": "vague"},
  "summary": "player 1 was more specific",
  "winner": "Player1",
  "good_example": "Write a 3-paragraph story...",
  "bad_example": "write something"
}` + "\n```"

func TestCompareBattleParsesFencedReply(t *testing.T) {
	c := &scriptedCompleter{replies: []string{battleReply}}
	v, err := newJudge(t, c).CompareBattle(context.Background(), "topic", "r1", "r2")
	if err != nil {
		t.Fatalf("CompareBattle: %v", err)
	}
	if v.Player1.Quality != 14 {
		t.Fatalf("fractional score should be floored, got %d", v.Player1.Quality)
	}
	if v.Player1.Total() != 69 || v.Player2.Total() != 50 {
		t.Fatalf("unexpected totals: %d %d", v.Player1.Total(), v.Player2.Total())
	}
	if v.Winner != SidePlayer1 {
		t.Fatalf("winner=%q", v.Winner)
	}
	if len(c.calls) != 1 || c.calls[0].Model != "judge-model" || c.calls[0].Temperature != compareTemperature {
		t.Fatalf("unexpected request: %+v", c.calls)
	}
}

func TestCompareBattleRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     "Player 1 wins because it is better.",
		"out of range": `{"player1": {"relevance": 25, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}, "player2": {"relevance": 1, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}}`,
		"negative":     `{"player1": {"relevance": -1, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}, "player2": {"relevance": 1, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}}`,
		"missing axis": `{"player1": {"relevance": 1, "quality": 1, "creativity": 1, "clarity": 1}, "player2": {"relevance": 1, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}}`,
		"missing side": `{"player1": {"relevance": 1, "quality": 1, "creativity": 1, "clarity": 1, "adherence": 1}}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			c := &scriptedCompleter{replies: []string{reply}}
			_, err := newJudge(t, c).CompareBattle(context.Background(), "topic", "r1", "r2")
			if !errors.Is(err, ErrMalformedReply) {
				t.Fatalf("expected ErrMalformedReply, got %v", err)
			}
		})
	}
}

func TestCompareBattleUpstreamErrorIsNotParseError(t *testing.T) {
	c := &scriptedCompleter{err: &llm.HTTPError{StatusCode: 500}}
	_, err := newJudge(t, c).CompareBattle(context.Background(), "topic", "r1", "r2")
	if err == nil || errors.Is(err, ErrMalformedReply) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var httpErr *llm.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected wrapped *llm.HTTPError, got %v", err)
	}
}

func TestResolveWinner(t *testing.T) {
	high := Rubric{Relevance: 20, Quality: 20, Creativity: 20, Clarity: 20, Adherence: 20}
	low := Rubric{Relevance: 1, Quality: 1, Creativity: 1, Clarity: 1, Adherence: 1}

	tests := []struct {
		name  string
		v     BattleVerdict
		first Side
		want  Side
	}{
		{"explicit winner overrides totals", BattleVerdict{Player1: high, Player2: low, Winner: SidePlayer2}, SidePlayer1, SidePlayer2},
		{"higher total player1", BattleVerdict{Player1: high, Player2: low, Winner: "tie"}, SidePlayer2, SidePlayer1},
		{"higher total player2", BattleVerdict{Player1: low, Player2: high}, SidePlayer1, SidePlayer2},
		{"tie goes to first submitter", BattleVerdict{Player1: low, Player2: low, Winner: "tie"}, SidePlayer2, SidePlayer2},
		{"tie without submitter", BattleVerdict{Player1: low, Player2: low}, "", SidePlayer1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.ResolveWinner(tt.first); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestScoreSoloBounds(t *testing.T) {
	reply := `{"relevance": 20, "quality": 0, "creativity": 7.9, "clarity": 13, "adherence": 11, "comment": "ok", "good_example": "g", "bad_example": "b"}`
	c := &scriptedCompleter{replies: []string{reply}}
	v, err := newJudge(t, c).ScoreSolo(context.Background(), "topic", "prompt", "response")
	if err != nil {
		t.Fatalf("ScoreSolo: %v", err)
	}
	for _, s := range []int{v.Relevance, v.Quality, v.Creativity, v.Clarity, v.Adherence} {
		if s < MinAxisScore || s > MaxAxisScore {
			t.Fatalf("score out of bounds: %d", s)
		}
	}
	if v.Total() != 51 {
		t.Fatalf("total=%d", v.Total())
	}
	if v.GoodExample != "g" || v.BadExample != "b" {
		t.Fatalf("examples not parsed: %+v", v)
	}
}

func TestSuggestTopicRequiresFields(t *testing.T) {
	c := &scriptedCompleter{replies: []string{`{"title": "Explain tides to a child"}`}}
	if _, err := newJudge(t, c).SuggestTopic(context.Background()); !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("expected ErrMalformedReply, got %v", err)
	}

	c = &scriptedCompleter{replies: []string{"```\n{\"title\": \"Tides\", \"description\": \"Explain tides to a child.\"}\n```"}}
	s, err := newJudge(t, c).SuggestTopic(context.Background())
	if err != nil {
		t.Fatalf("SuggestTopic: %v", err)
	}
	if s.Title != "Tides" {
		t.Fatalf("title=%q", s.Title)
	}
}

func TestGeneratePromptShape(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"  an answer  "}}
	text, err := newJudge(t, c).Generate(context.Background(), "Haiku about rain", "Write a haiku")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "an answer" {
		t.Fatalf("text=%q", text)
	}
	req := c.calls[0]
	if !strings.Contains(req.User, "Topic: Haiku about rain") || !strings.Contains(req.User, "Prompt: Write a haiku") {
		t.Fatalf("unexpected user message: %q", req.User)
	}
	if req.MaxTokens != generateMaxTokens {
		t.Fatalf("max tokens=%d", req.MaxTokens)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```\n{\"a\":1}```  ", "{\"a\":1}"},
		{"```{\"a\":1}```", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Fatalf("stripCodeFence(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}
