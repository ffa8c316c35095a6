package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/extract"
	"github.com/goliatone/go-reform/pkg/model"
)

func TestQuizPrompt(t *testing.T) {
	fields := []extract.RawField{
		{ID: "fullname", Name: "Full Name", Type: extract.RawText, IsExported: true},
	}
	got, err := QuizPrompt(fields)
	if err != nil {
		t.Fatalf("QuizPrompt: %v", err)
	}
	if !strings.HasPrefix(got, "My online form has the following fields.") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "separated by a double new line ?") {
		t.Fatalf("missing separator instruction: %q", got)
	}
	wantTail := "---\n" + `[{"_id":"fullname","name":"Full Name","type":"text","isReadOnly":false,"isExported":true}]`
	if !strings.HasSuffix(got, wantTail) {
		t.Fatalf("expected JSON field list at the end, got %q", got)
	}

	empty, err := QuizPrompt(nil)
	if err != nil {
		t.Fatalf("QuizPrompt(nil): %v", err)
	}
	if !strings.HasSuffix(empty, "---\n[]") {
		t.Fatalf("expected empty list, got %q", empty)
	}
}

func TestSplitQuestions(t *testing.T) {
	reply := "What is your full name?\n\n  \nWhat is your\nemail?\r\n\r\nDo you agree?\n\n"
	want := []string{"What is your full name?", "What is your email?", "Do you agree?"}
	if diff := cmp.Diff(want, SplitQuestions(reply)); diff != "" {
		t.Fatalf("questions mismatch (-want +got):\n%s", diff)
	}
	if got := SplitQuestions("   "); len(got) != 0 {
		t.Fatalf("expected no questions, got %v", got)
	}
}

func TestApplyQuestions(t *testing.T) {
	schema := model.FormSchema{Pages: []model.Page{
		{Fields: []model.Field{
			{ID: "name", Label: "Name", Type: model.FieldTypeText},
			{ID: "email", Label: "Email", Type: model.FieldTypeEmail},
		}},
		{Fields: []model.Field{
			{ID: "agree", Label: "Agree", Type: model.FieldTypeCheckbox},
		}},
	}}

	got, applied := ApplyQuestions(schema, "What should we call you?\n\nWhere can we reach you?")
	if applied != 2 {
		t.Fatalf("expected 2 relabeled fields, got %d", applied)
	}
	var labels []string
	for _, f := range got.AllFields() {
		labels = append(labels, f.Label)
	}
	if diff := cmp.Diff([]string{"What should we call you?", "Where can we reach you?", "Agree"}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if schema.Pages[0].Fields[0].Label != "Name" {
		t.Fatal("input schema must not be modified")
	}

	_, applied = ApplyQuestions(schema, "a\n\nb\n\nc\n\nd")
	if applied != 3 {
		t.Fatalf("expected extra questions to be ignored, got %d", applied)
	}
}

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := NewGemini("secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithModel("test-model"), WithMaxOutputTokens(64))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Q1?\n\n"},{"text":"Q2?"}]}}]}`)
	})

	reply, err := g.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "Q1?\n\nQ2?" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if gotPath != "/models/test-model:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotBody.GenerationConfig.MaxOutputTokens != 64 || gotBody.Contents[0].Parts[0].Text != "hello" {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
}

func TestGemini_GenerateErrors(t *testing.T) {
	failing := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	if _, err := failing.Generate(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}

	blocked := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})
	if _, err := blocked.Generate(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected block error, got %v", err)
	}

	empty := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})
	if _, err := empty.Generate(context.Background(), "hello"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	if _, err := NewGemini("  "); !errors.Is(err, ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestGemini_Stream(t *testing.T) {
	var gotQuery string
	g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Hello\"}]}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\" world\"}]}}]}\n\n")
	})

	var chunks []string
	reply, err := g.Stream(context.Background(), "hi", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if reply != "Hello world" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if diff := cmp.Diff([]string{"Hello", " world"}, chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
	if gotQuery != "alt=sse" {
		t.Fatalf("expected alt=sse, got %q", gotQuery)
	}
}

type fakeClient struct {
	chunks []string
	err    error
}

func (f *fakeClient) Model() string { return "fake" }

func (f *fakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(f.chunks, ""), nil
}

func (f *fakeClient) Stream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return "", err
		}
	}
	return strings.Join(f.chunks, ""), nil
}

type recorder struct {
	events []events.Event
}

func (r *recorder) Emit(e events.Event) { r.events = append(r.events, e) }

func (r *recorder) names() []events.Name {
	out := make([]events.Name, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func TestRunner_StreamEvents(t *testing.T) {
	rec := &recorder{}
	runner, err := NewRunner(&fakeClient{chunks: []string{"a", "b"}}, WithEmitter(rec), WithStreaming(true), WithSource("quiz"))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	reply, err := runner.Run(context.Background(), "question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply != "ab" {
		t.Fatalf("unexpected reply %q", reply)
	}
	want := []events.Name{events.PromptStart, events.SessionCreated, events.PromptProgress, events.PromptProgress, events.PromptResponse}
	if diff := cmp.Diff(want, rec.names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := rec.events[0].Detail.(events.PromptStartDetail).Prompt; got != "question" {
		t.Fatalf("unexpected prompt detail %q", got)
	}
	session := rec.events[1].Detail.(events.SessionDetail)
	if session.SessionID == "" || session.Model != "fake" {
		t.Fatalf("unexpected session detail %+v", session)
	}
	if got := rec.events[4].Detail.(events.ResponseDetail).Response; got != "ab" {
		t.Fatalf("unexpected response detail %q", got)
	}
	for _, e := range rec.events {
		if e.Source != "quiz" {
			t.Fatalf("expected source quiz, got %q", e.Source)
		}
	}
}

func TestRunner_ErrorAndEmpty(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	runner, err := NewRunner(&fakeClient{err: boom}, WithEmitter(rec))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), "  \n"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("blank prompt must not emit, got %v", rec.names())
	}

	if _, err := runner.Run(context.Background(), "question"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	want := []events.Name{events.PromptStart, events.SessionCreated, events.PromptError}
	if diff := cmp.Diff(want, rec.names()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := rec.events[2].Detail.(events.ErrorDetail).Error; got != "boom" {
		t.Fatalf("unexpected error detail %q", got)
	}

	if _, err := NewRunner(nil); !errors.Is(err, ErrClientRequired) {
		t.Fatalf("expected ErrClientRequired, got %v", err)
	}
}
