package app

import "time"

// Clock setters for tests that need ordered timestamps.

func (s *ProfileService) SetClock(now func() time.Time)  { s.now = now }
func (s *GroupService) SetClock(now func() time.Time)    { s.now = now }
func (s *ProposalService) SetClock(now func() time.Time) { s.now = now }
func (s *QuizService) SetClock(now func() time.Time)     { s.now = now }
func (s *LessonService) SetClock(now func() time.Time)   { s.now = now }
