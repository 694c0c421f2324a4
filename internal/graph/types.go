package graph

// Node is the client-side mirror of one knowledge-graph node. The server
// owns the truth; every field here is replaceable wholesale on refresh.
type Node struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Level              int    `json:"level"`
	Value              int    `json:"value"`
	MasteryScore       int    `json:"mastery_score"`
	ConsecutiveCorrect int    `json:"consecutive_correct"`
	Mastered           bool   `json:"mastered"`
	Highlighted        bool   `json:"highlighted"`
	ContentSnippet     string `json:"content_snippet"`
}

// Edge is a directed relation between two nodes.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// DefaultNodeValue is the visual weight assigned when the server omits one.
const DefaultNodeValue = 5
