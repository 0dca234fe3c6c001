package app

import (
	"time"

	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/domain"
)

func profileFromDoc(doc docstore.Doc) domain.UserProfile {
	return domain.UserProfile{
		UserID:      docstore.String(doc[docstore.IDField]),
		Email:       docstore.String(doc["email"]),
		DisplayName: docstore.String(doc["displayName"]),
		Role:        domain.Role(docstore.String(doc["role"])),
		CreatedAt:   docstore.Time(doc["createdAt"]),
	}
}

func profileDoc(p domain.UserProfile) docstore.Doc {
	return docstore.Doc{
		"email":       p.Email,
		"displayName": p.DisplayName,
		"role":        string(p.Role),
		"createdAt":   p.CreatedAt,
	}
}

func groupFromDoc(doc docstore.Doc) domain.Group {
	members := docstore.Strings(doc["members"])
	if members == nil {
		members = []string{}
	}
	return domain.Group{
		ID:        docstore.String(doc[docstore.IDField]),
		Name:      docstore.String(doc["groupName"]),
		Members:   members,
		CreatedAt: docstore.Time(doc["createdAt"]),
	}
}

func proposalFromDoc(doc docstore.Doc) domain.Proposal {
	createdAt := docstore.Time(doc["createdAt"])
	updatedAt := docstore.Time(doc["updatedAt"])
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return domain.Proposal{
		ID:            docstore.String(doc[docstore.IDField]),
		GroupID:       docstore.String(doc["groupId"]),
		ParticipantID: docstore.String(doc["participantId"]),
		CoordinatorID: docstore.String(doc["coordinatorId"]),
		Title:         docstore.String(doc["title"]),
		Description:   docstore.String(doc["description"]),
		Status:        domain.ProposalStatus(docstore.String(doc["status"])),
		Progress:      docstore.StringPtr(doc["progress"]),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

func lessonFromDoc(doc docstore.Doc) domain.Lesson {
	return domain.Lesson{
		ID:            docstore.String(doc[docstore.IDField]),
		Title:         docstore.String(doc["title"]),
		Level:         domain.LessonLevel(docstore.String(doc["level"])),
		Content:       docstore.String(doc["content"]),
		Resource:      docstore.String(doc["resource"]),
		CoordinatorID: docstore.String(doc["coordinatorId"]),
		CreatedAt:     docstore.Time(doc["createdAt"]),
	}
}

func quizFromDoc(doc docstore.Doc) (domain.Quiz, error) {
	var questions []domain.Question
	if raw, ok := doc["questions"]; ok && raw != nil {
		if err := docstore.DecodeInto(raw, &questions); err != nil {
			return domain.Quiz{}, err
		}
	}
	return domain.Quiz{
		ID:        docstore.String(doc[docstore.IDField]),
		LessonID:  docstore.String(doc["lessonId"]),
		Questions: questions,
		CreatedAt: docstore.Time(doc["createdAt"]),
	}, nil
}

func questionDocs(questions []domain.Question) []any {
	out := make([]any, 0, len(questions))
	for _, q := range questions {
		opts := make([]any, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o)
		}
		out = append(out, map[string]any{
			"question": q.Question,
			"options":  opts,
			"answer":   q.Answer,
			"type":     "mcq",
		})
	}
	return out
}

func resultFromDoc(doc docstore.Doc) domain.QuizResult {
	answers := docstore.Strings(doc["answers"])
	if answers == nil {
		answers = []string{}
	}
	return domain.QuizResult{
		ID:            docstore.String(doc[docstore.IDField]),
		ParticipantID: docstore.String(doc["participantId"]),
		LessonID:      docstore.String(doc["lessonId"]),
		QuizID:        docstore.String(doc["quizId"]),
		Answers:       answers,
		Score:         docstore.Int(doc["score"]),
		SubmittedAt:   docstore.Time(doc["submittedAt"]),
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
