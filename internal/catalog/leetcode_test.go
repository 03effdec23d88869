package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeLeetCode(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		switch {
		case strings.Contains(body.Query, "getProblemInfo"):
			if body.Variables["titleSlug"] != "two-sum" {
				json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"question": nil}})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"question": map[string]any{
						"questionFrontendId": "1",
						"title":              "Two Sum",
						"difficulty":         "Easy",
						"topicTags": []map[string]string{
							{"name": "Array", "slug": "array"},
							{"name": "Hash Table", "slug": "hash-table"},
						},
					},
				},
			})
		case strings.Contains(body.Query, "problemsetQuestionList"):
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"problemsetQuestionList": map[string]any{
						"data": []map[string]string{
							{"titleSlug": "not-it", "questionFrontendId": "11"},
							{"titleSlug": "two-sum", "questionFrontendId": "1"},
						},
					},
				},
			})
		default:
			t.Fatalf("unexpected query: %s", body.Query)
		}
	}))
}

func TestProblemInfo(t *testing.T) {
	server := fakeLeetCode(t)
	defer server.Close()

	client := NewLeetCodeClientWithEndpoint(server.URL, nil)
	p, err := client.ProblemInfo(context.Background(), "two-sum")
	if err != nil {
		t.Fatalf("problem info: %v", err)
	}

	if p.ID != "1" || p.Title != "Two Sum" {
		t.Errorf("got id=%s title=%q", p.ID, p.Title)
	}
	if p.Difficulty != DifficultyEasy {
		t.Errorf("difficulty = %s, want Easy", p.Difficulty)
	}
	if len(p.Topics) != 2 || p.Topics[1] != TopicHashTable {
		t.Errorf("topics = %v", p.Topics)
	}
	if p.URL != "https://leetcode.com/problems/two-sum/" {
		t.Errorf("url = %s", p.URL)
	}
}

func TestProblemInfo_NotFound(t *testing.T) {
	server := fakeLeetCode(t)
	defer server.Close()

	client := NewLeetCodeClientWithEndpoint(server.URL, nil)
	if _, err := client.ProblemInfo(context.Background(), "no-such-problem"); err == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestResolve_NumericID(t *testing.T) {
	server := fakeLeetCode(t)
	defer server.Close()

	client := NewLeetCodeClientWithEndpoint(server.URL, nil)
	p, err := client.Resolve(context.Background(), "1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Title != "Two Sum" {
		t.Errorf("title = %q, want Two Sum", p.Title)
	}
}

func TestResolve_SlugPassthrough(t *testing.T) {
	server := fakeLeetCode(t)
	defer server.Close()

	client := NewLeetCodeClientWithEndpoint(server.URL, nil)
	p, err := client.Resolve(context.Background(), "two-sum")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != "1" {
		t.Errorf("id = %s, want 1", p.ID)
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"54", true},
		{"two-sum", false},
		{"", false},
		{"12a", false},
	}
	for _, tt := range tests {
		if got := isNumeric(tt.in); got != tt.want {
			t.Errorf("isNumeric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
