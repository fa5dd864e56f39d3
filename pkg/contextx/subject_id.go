package contextx

import (
	"context"
	"fmt"
)

type SubjectID string

type contextKeySubjectID struct{}

func (s SubjectID) String() string {
	return string(s)
}

func WithSubjectID(ctx context.Context, subjectID SubjectID) context.Context {
	return context.WithValue(ctx, contextKeySubjectID{}, subjectID)
}

func SubjectIDFromContext(ctx context.Context) (SubjectID, error) {
	subjectID, ok := ctx.Value(contextKeySubjectID{}).(SubjectID)
	if !ok {
		return "", fmt.Errorf("subject id: %w", ErrNoValue)
	}

	return subjectID, nil
}
