package service

import (
	"strings"

	"github.com/taskmint-app/taskmint/internal/domain"
)

// AnswerMatches decides whether a submitted answer counts as correct for
// the given question type. Pure string comparison, no I/O.
//
// mcq answers are compared exactly after trimming surrounding whitespace;
// short answers additionally fold case. Nothing else is normalized, so
// inner whitespace and punctuation must match.
func AnswerMatches(questionType domain.QuestionType, submitted, correct string) bool {
	submitted = strings.TrimSpace(submitted)
	correct = strings.TrimSpace(correct)

	switch questionType {
	case domain.QuestionTypeMCQ:
		return submitted == correct
	case domain.QuestionTypeShort:
		return strings.EqualFold(submitted, correct)
	default:
		return false
	}
}
