package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, systemPrompt, prompt string) (string, error) {
	s.calls++
	s.lastSystem = systemPrompt
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

const sampleResume = "Jane Smith\nSenior Frontend Engineer\n• Built dashboards in ReactJS\n• Packaged services with Docker"

func sampleRequest() ai.Request {
	return ai.Request{
		Namespace:  "req-1",
		ResumeText: sampleResume,
		JDText:     "We need React, Kubernetes and Communication.",
		JDSkills:   []analysis.SkillTerm{"React", "Kubernetes", "Communication"},
	}
}

func TestClassifierClassify(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"candidate_name": "Jane Smith",
		"detailed_matches": [
			{"skill": "kubernetes", "match_status": "Partial", "justification": "Docker packaging is adjacent to Kubernetes"},
			{"skill": "React", "match_status": "MATCHED", "justification": "Built dashboards in ReactJS"},
			{"skill": "Communication", "match_status": "Missing", "justification": "Resume only lists technical work"},
			{"skill": "Terraform", "match_status": "Missing", "justification": "not requested"}
		],
		"improvement_tips": ["Deploy a Docker service to Kubernetes", " ", "Describe cross-team Communication"]
	}` + "\n```"}

	classifier := NewClassifier(stub, zap.NewNop(), 0, nil)
	got, err := classifier.Classify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.CandidateName != "Jane Smith" {
		t.Fatalf("unexpected name: %q", got.CandidateName)
	}
	if got.Degraded {
		t.Fatalf("did not expect degradation: %v", got.Notes)
	}
	if got.Strategy != StrategyName {
		t.Fatalf("unexpected strategy: %s", got.Strategy)
	}

	want := []struct {
		skill  analysis.SkillTerm
		status analysis.MatchStatus
	}{
		{"React", analysis.StatusMatched},
		{"Kubernetes", analysis.StatusPartial},
		{"Communication", analysis.StatusMissing},
	}
	if len(got.Matches) != len(want) {
		t.Fatalf("expected %d matches, got %d", len(want), len(got.Matches))
	}
	for i, w := range want {
		if got.Matches[i].Skill != w.skill || got.Matches[i].Status != w.status {
			t.Fatalf("match %d: got %+v, want %s/%s", i, got.Matches[i], w.skill, w.status)
		}
	}

	if len(got.Tips) != 2 {
		t.Fatalf("expected blank tips to be dropped, got %q", got.Tips)
	}

	if !strings.Contains(stub.lastPrompt, `["React","Kubernetes","Communication"]`) {
		t.Fatalf("expected skills JSON in prompt: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "Built dashboards in ReactJS") {
		t.Fatalf("expected resume text in prompt")
	}
	if !strings.Contains(stub.lastSystem, "Candidate (Name not found)") {
		t.Fatalf("expected embedded system prompt to be sent")
	}
}

func TestClassifierResolvesSkippedSkillsFromResume(t *testing.T) {
	stub := &stubGenerator{response: `{
		"candidate_name": null,
		"detailed_matches": [
			{"skill": "React", "match_status": "probably", "justification": "x"}
		]
	}`}

	req := sampleRequest()
	req.JDSkills = []analysis.SkillTerm{"React", "Docker", "Kubernetes"}

	got, err := NewClassifier(stub, zap.NewNop(), 0, nil).Classify(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Degraded || len(got.Notes) != 1 {
		t.Fatalf("expected one degradation note, got %v", got.Notes)
	}
	if !strings.Contains(got.Notes[0], "React, Docker, Kubernetes") {
		t.Fatalf("unexpected note: %s", got.Notes[0])
	}

	// "ReactJS" is not a verbatim mention of React.
	if got.Matches[0].Status != analysis.StatusMissing {
		t.Fatalf("expected React to resolve Missing, got %s", got.Matches[0].Status)
	}
	if got.Matches[1].Status != analysis.StatusMatched || !strings.Contains(got.Matches[1].Justification, "Packaged services with Docker") {
		t.Fatalf("expected Docker to resolve Matched with a quote, got %+v", got.Matches[1])
	}
	if got.Matches[2].Status != analysis.StatusMissing {
		t.Fatalf("expected Kubernetes Missing, got %s", got.Matches[2].Status)
	}
	if got.CandidateName != "" {
		t.Fatalf("expected empty name, got %q", got.CandidateName)
	}
}

func TestClassifierFillsEmptyJustification(t *testing.T) {
	stub := &stubGenerator{response: `{"detailed_matches": [{"skill": "Docker", "match_status": "Matched", "justification": ""}]}`}

	req := sampleRequest()
	req.JDSkills = []analysis.SkillTerm{"Docker"}

	got, err := NewClassifier(stub, zap.NewNop(), 0, nil).Classify(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Matches[0].Status != analysis.StatusMatched {
		t.Fatalf("model status must be kept, got %s", got.Matches[0].Status)
	}
	if !strings.Contains(got.Matches[0].Justification, "Packaged services with Docker") {
		t.Fatalf("expected justification quoting the resume, got %q", got.Matches[0].Justification)
	}
}

func TestClassifierMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":      "I think the candidate is great",
		"wrong shape":   `{"detailed_matches": "all good"}`,
		"missing field": `{"candidate_name": "Jane"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubGenerator{response: response}
			_, err := NewClassifier(stub, zap.NewNop(), 0, nil).Classify(context.Background(), sampleRequest())

			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
			if kind := analysis.KindOf(err); kind != analysis.KindProviderUnavailable {
				t.Fatalf("unexpected kind %s", kind)
			}
		})
	}
}

func TestClassifierRequiresInput(t *testing.T) {
	stub := &stubGenerator{}
	classifier := NewClassifier(stub, zap.NewNop(), 0, nil)

	req := sampleRequest()
	req.JDSkills = nil
	if _, err := classifier.Classify(context.Background(), req); analysis.KindOf(err) != analysis.KindEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("generator must not be called for empty input")
	}
}

func TestClassifierPropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: &analysis.ProviderUnavailableError{Provider: "gemini", RateLimited: true}}
	_, err := NewClassifier(stub, zap.NewNop(), 0, nil).Classify(context.Background(), sampleRequest())
	if analysis.KindOf(err) != analysis.KindProviderUnavailable {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"Sure! {\"a\":1} Hope it helps": `{"a":1}`,
		"no object":                     "",
	}
	for in, want := range cases {
		if got := extractJSON(in); got != want {
			t.Fatalf("extractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
