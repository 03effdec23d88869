package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const graphqlEndpoint = "https://leetcode.com/graphql"

const problemInfoQuery = `
query getProblemInfo($titleSlug: String!) {
    question(titleSlug: $titleSlug) {
        questionFrontendId
        title
        difficulty
        topicTags {
            name
            slug
        }
    }
}`

const slugLookupQuery = `
query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(
    categorySlug: $categorySlug
    limit: $limit
    skip: $skip
    filters: $filters
  ) {
    data {
      titleSlug
      questionFrontendId
    }
  }
}`

// LeetCodeClient resolves problem slugs and IDs against the LeetCode
// GraphQL API. Used by the attempt-logging layer so callers only need to
// supply a slug or frontend ID when recording practice.
type LeetCodeClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewLeetCodeClient creates a client with a bounded request timeout.
func NewLeetCodeClient() *LeetCodeClient {
	return &LeetCodeClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   graphqlEndpoint,
	}
}

// NewLeetCodeClientWithEndpoint overrides the GraphQL endpoint (tests).
func NewLeetCodeClientWithEndpoint(endpoint string, client *http.Client) *LeetCodeClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LeetCodeClient{httpClient: client, endpoint: endpoint}
}

// ProblemInfo fetches catalog data for a problem by its title slug.
func (c *LeetCodeClient) ProblemInfo(ctx context.Context, titleSlug string) (*Problem, error) {
	var resp struct {
		Data struct {
			Question *struct {
				QuestionFrontendID string `json:"questionFrontendId"`
				Title              string `json:"title"`
				Difficulty         string `json:"difficulty"`
				TopicTags          []struct {
					Name string `json:"name"`
					Slug string `json:"slug"`
				} `json:"topicTags"`
			} `json:"question"`
		} `json:"data"`
	}

	err := c.query(ctx, problemInfoQuery, map[string]any{"titleSlug": titleSlug}, &resp)
	if err != nil {
		return nil, err
	}
	q := resp.Data.Question
	if q == nil || q.Title == "" {
		return nil, fmt.Errorf("problem %q not found", titleSlug)
	}

	topics := make([]Topic, 0, len(q.TopicTags))
	for _, t := range q.TopicTags {
		topics = append(topics, Topic(t.Slug))
	}

	return &Problem{
		ID:         q.QuestionFrontendID,
		Title:      q.Title,
		URL:        "https://leetcode.com/problems/" + titleSlug + "/",
		Topics:     topics,
		Difficulty: ParseDifficulty(q.Difficulty),
	}, nil
}

// SlugFromID resolves a frontend problem ID (e.g. "54") to its title slug.
func (c *LeetCodeClient) SlugFromID(ctx context.Context, problemID string) (string, error) {
	var resp struct {
		Data struct {
			ProblemsetQuestionList struct {
				Data []struct {
					TitleSlug          string `json:"titleSlug"`
					QuestionFrontendID string `json:"questionFrontendId"`
				} `json:"data"`
			} `json:"problemsetQuestionList"`
		} `json:"data"`
	}

	vars := map[string]any{
		"categorySlug": "",
		"limit":        5,
		"skip":         0,
		"filters":      map[string]any{"searchKeywords": problemID},
	}
	if err := c.query(ctx, slugLookupQuery, vars, &resp); err != nil {
		return "", err
	}

	for _, item := range resp.Data.ProblemsetQuestionList.Data {
		if item.QuestionFrontendID == problemID {
			return item.TitleSlug, nil
		}
	}
	return "", fmt.Errorf("problem ID %q not found", problemID)
}

// Resolve accepts either a title slug or a numeric frontend ID and returns
// the problem's catalog data.
func (c *LeetCodeClient) Resolve(ctx context.Context, ref string) (*Problem, error) {
	slug := ref
	if isNumeric(ref) {
		s, err := c.SlugFromID(ctx, ref)
		if err != nil {
			return nil, err
		}
		slug = s
	}
	return c.ProblemInfo(ctx, slug)
}

func (c *LeetCodeClient) query(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": vars,
	})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; solve-next)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query leetcode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("leetcode returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
