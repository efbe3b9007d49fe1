package games

import (
	"testing"
	"time"
)

// startQuiz pins the question sequence to the first quizRounds bank entries
func startQuiz(t *testing.T, m *Manager) (*Quiz, []TriviaQuestion) {
	t.Helper()
	q := NewQuiz(m)
	next := 0
	q.randf = func(int) int {
		i := next
		next++
		return i
	}
	first, err := q.Start("chan-1", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	questions := triviaBank[:quizRounds]
	if first.Question != questions[0].Question {
		t.Fatalf("Unexpected first question: %q", first.Question)
	}
	return q, questions
}

func TestQuiz_AdvancesOnCorrectAnswers(t *testing.T) {
	m := newTestManager(t)
	q, questions := startQuiz(t, m)

	out, err := q.Answer("chan-1", "user-1", "alice", questions[0].Answer)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !out.Correct || out.Points != quizBasePoints {
		t.Fatalf("Correct answer should score: %+v", out)
	}
	if out.NextQuestion == nil || out.NextQuestion.Question != questions[1].Question {
		t.Errorf("Expected the second question next, got %+v", out.NextQuestion)
	}

	// Wrong answer leaves the round where it is
	out, err = q.Answer("chan-1", "user-1", "alice", "wrong")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if out.Correct {
		t.Error("Wrong answer must not advance the quiz")
	}
}

func TestQuiz_FinishRecordsScores(t *testing.T) {
	m := newTestManager(t)
	q, questions := startQuiz(t, m)

	// Two players alternate correct answers
	var out QuizOutcome
	var err error
	for i, question := range questions {
		user, name := "user-1", "alice"
		if i%2 == 1 {
			user, name = "user-2", "bob"
		}
		out, err = q.Answer("chan-1", user, name, question.Answer)
		if err != nil {
			t.Fatalf("Answer %d failed: %v", i, err)
		}
	}

	if !out.Finished {
		t.Fatalf("Final answer should finish the quiz: %+v", out)
	}
	if _, ok := m.Get(GameQuiz, "chan-1"); ok {
		t.Error("Finished quiz should be removed")
	}

	s1, ok1 := m.Leaderboard().Score(GameQuiz, "user-1")
	s2, ok2 := m.Leaderboard().Score(GameQuiz, "user-2")
	if !ok1 || !ok2 {
		t.Fatal("Both players should be on the leaderboard")
	}
	if s1.Points != 3*quizBasePoints || s2.Points != 2*quizBasePoints {
		t.Errorf("Unexpected points split: %d / %d", s1.Points, s2.Points)
	}
	if s1.UserName != "alice" || s2.UserName != "bob" {
		t.Errorf("Leaderboard should carry display names, got %q / %q", s1.UserName, s2.UserName)
	}
}

func TestQuiz_TimeoutRecordsSnapshotScores(t *testing.T) {
	m := newTestManager(t)
	q := NewQuiz(m)
	next := 0
	q.randf = func(int) int {
		i := next
		next++
		return i
	}
	q.timeout = 30 * time.Millisecond

	expired := make(chan map[string]int, 1)
	if _, err := q.Start("chan-1", func(scores map[string]int) {
		expired <- scores
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := q.Answer("chan-1", "user-1", "alice", triviaBank[0].Answer); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	var scores map[string]int
	select {
	case scores = <-expired:
	case <-time.After(time.Second):
		t.Fatal("Timeout callback never fired")
	}

	if scores["user-1"] != quizBasePoints {
		t.Fatalf("Unexpected scores at timeout: %v", scores)
	}
	// The callback gets a copy, detached from session state
	scores["user-1"] = 999

	entry, ok := m.Leaderboard().Score(GameQuiz, "user-1")
	if !ok {
		t.Fatal("Timeout should record scores on the leaderboard")
	}
	if entry.Points != quizBasePoints {
		t.Errorf("Expected %d points, got %d", quizBasePoints, entry.Points)
	}
	if entry.UserName != "alice" {
		t.Errorf("Leaderboard should carry the display name, got %q", entry.UserName)
	}
	if _, active := m.Get(GameQuiz, "chan-1"); active {
		t.Error("Expired quiz should be removed")
	}
}

func TestQuiz_ScoresSnapshot(t *testing.T) {
	m := newTestManager(t)
	q, questions := startQuiz(t, m)

	q.Answer("chan-1", "user-1", "alice", questions[0].Answer)

	scores, ok := q.Scores("chan-1")
	if !ok {
		t.Fatal("Active quiz should report scores")
	}
	if scores["user-1"] != quizBasePoints {
		t.Errorf("Unexpected scores: %v", scores)
	}

	scores["user-1"] = 999
	fresh, _ := q.Scores("chan-1")
	if fresh["user-1"] == 999 {
		t.Error("Scores must return a copy")
	}
}
