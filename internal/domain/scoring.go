package domain

// Feedback is the advisory outcome shown right after an option is picked.
// It is never persisted.
type Feedback struct {
	Correct      bool `json:"correct"`
	CorrectIndex int  `json:"correctIndex"`
	Points       int  `json:"points"`
}

// ImmediateFeedback grades a single selection for display purposes only.
func ImmediateFeedback(q Question, selected int) Feedback {
	fb := Feedback{CorrectIndex: q.CorrectAnswerIndex}
	if selected == q.CorrectAnswerIndex {
		fb.Correct = true
		fb.Points = PointsPerCorrectAnswer
	}
	return fb
}

// AuthoritativeScore recomputes the score of a whole attempt from its raw answers.
// Missing entries and NoAnswer count as incorrect; extra entries are ignored.
// It is the only score that may be persisted.
func AuthoritativeScore(quiz Quiz, answers []int) (int, []bool) {
	score := 0
	correct := make([]bool, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] != NoAnswer && answers[i] == q.CorrectAnswerIndex {
			correct[i] = true
			score += PointsPerCorrectAnswer
		}
	}
	return score, correct
}
