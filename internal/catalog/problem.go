package catalog

// Topic is a tagged algorithmic concept (e.g. graphs, dynamic programming).
type Topic string

// Canonical topic tags. Problems may carry tags outside this set; these are
// the ones the recommendation request filters accept.
const (
	TopicArray              Topic = "array"
	TopicString             Topic = "string"
	TopicHashTable          Topic = "hash-table"
	TopicDynamicProgramming Topic = "dynamic-programming"
	TopicMath               Topic = "math"
	TopicSorting            Topic = "sorting"
	TopicGreedy             Topic = "greedy"
	TopicDFS                Topic = "depth-first-search"
	TopicBFS                Topic = "breadth-first-search"
	TopicBinarySearch       Topic = "binary-search"
	TopicTree               Topic = "tree"
	TopicGraph              Topic = "graph"
	TopicBacktracking       Topic = "backtracking"
	TopicLinkedList         Topic = "linked-list"
	TopicStack              Topic = "stack"
	TopicQueue              Topic = "queue"
	TopicHeap               Topic = "heap"
	TopicTrie               Topic = "trie"
	TopicSlidingWindow      Topic = "sliding-window"
	TopicTwoPointers        Topic = "two-pointers"
)

// AllTopics returns the canonical topic set in display order.
func AllTopics() []Topic {
	return []Topic{
		TopicArray, TopicString, TopicHashTable, TopicDynamicProgramming,
		TopicMath, TopicSorting, TopicGreedy, TopicDFS, TopicBFS,
		TopicBinarySearch, TopicTree, TopicGraph, TopicBacktracking,
		TopicLinkedList, TopicStack, TopicQueue, TopicHeap, TopicTrie,
		TopicSlidingWindow, TopicTwoPointers,
	}
}

// Difficulty is the coarse problem difficulty bucket.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty normalizes a difficulty label. Returns "" for unknown input.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "Easy", "easy":
		return DifficultyEasy
	case "Medium", "medium":
		return DifficultyMedium
	case "Hard", "hard":
		return DifficultyHard
	}
	return ""
}

// Problem is a catalog entry. Read-only from the engine's perspective; the
// catalog collaborator owns it.
type Problem struct {
	ID          string
	Title       string
	URL         string
	Topics      []Topic
	Difficulty  Difficulty
	CompanyTags []string
}

// HasTopic reports whether the problem carries the given topic tag.
func (p *Problem) HasTopic(t Topic) bool {
	for _, pt := range p.Topics {
		if pt == t {
			return true
		}
	}
	return false
}

// HasAnyCompany reports whether the problem carries any of the given
// company tags.
func (p *Problem) HasAnyCompany(companies []string) bool {
	for _, c := range companies {
		for _, tag := range p.CompanyTags {
			if tag == c {
				return true
			}
		}
	}
	return false
}

// Filters narrows a catalog listing. Zero-value fields mean "no constraint".
type Filters struct {
	Topics       []Topic
	Difficulties []Difficulty
	Companies    []string
}

// Empty reports whether no constraint is set.
func (f Filters) Empty() bool {
	return len(f.Topics) == 0 && len(f.Difficulties) == 0 && len(f.Companies) == 0
}
