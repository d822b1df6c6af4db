package service

import (
	"athos_explorer_backend/internal/model"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AnswerValue 客户端提交的答案，兼容字符串、数字、布尔与数组
type AnswerValue struct {
	Values []string
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Values = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		values := make([]string, 0, len(raw))
		for _, r := range raw {
			v, err := scalarString(r)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		a.Values = values
		return nil
	}
	v, err := scalarString(data)
	if err != nil {
		return err
	}
	a.Values = []string{v}
	return nil
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(a.Values)
}

func scalarString(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported answer value %s", string(data))
	}
}

type QuestionFeedback struct {
	QuestionID     uint     `json:"questionId"`
	Correct        bool     `json:"correct"`
	Answered       bool     `json:"answered"`
	Points         int      `json:"points"`
	EarnedPoints   int      `json:"earnedPoints"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation,omitempty"`
}

type QuizEvaluation struct {
	EarnedPoints    int                `json:"earnedPoints"`
	TotalPoints     int                `json:"totalPoints"`
	PercentageScore int                `json:"percentageScore"`
	Feedback        []QuestionFeedback `json:"feedback"`
}

// EvaluateQuiz 纯计算；未作答的题目计 0 分
func EvaluateQuiz(quiz *model.Quiz, answers map[uint]AnswerValue) QuizEvaluation {
	eval := QuizEvaluation{Feedback: make([]QuestionFeedback, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		eval.TotalPoints += q.Points
		fb := QuestionFeedback{
			QuestionID:     q.ID,
			Points:         q.Points,
			CorrectAnswers: []string(q.CorrectAnswers),
			Explanation:    q.Explanation,
		}
		if ans, ok := answers[q.ID]; ok && len(ans.Values) > 0 {
			fb.Answered = true
			fb.Correct = IsCorrect(q, ans)
		}
		if fb.Correct {
			fb.EarnedPoints = q.Points
			eval.EarnedPoints += q.Points
		}
		eval.Feedback = append(eval.Feedback, fb)
	}
	eval.PercentageScore = PercentageScore(eval.EarnedPoints, eval.TotalPoints)
	return eval
}

func PercentageScore(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(100 * float64(earned) / float64(total))))
}

func IsCorrect(q model.QuizQuestion, ans AnswerValue) bool {
	if q.Type == model.MultipleSelect {
		return sameSet(ans.Values, q.CorrectAnswers)
	}
	if len(ans.Values) != 1 || len(q.CorrectAnswers) == 0 {
		return false
	}
	given := strings.TrimSpace(ans.Values[0])
	want := strings.TrimSpace(q.CorrectAnswers[0])
	switch q.Type {
	case model.TrueFalse, model.ShortAnswer:
		return strings.EqualFold(given, want)
	default:
		return given == want
	}
}

// sameSet 顺序无关；重复项按一个计算
func sameSet(given, want []string) bool {
	g := toSet(given)
	w := toSet(want)
	if len(g) != len(w) || len(w) == 0 {
		return false
	}
	for v := range w {
		if _, ok := g[v]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}
