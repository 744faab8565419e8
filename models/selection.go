package models

// SelectionValue single-select serialization payload
type SelectionValue struct {
	PromptText string `json:"promptText,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// SelectionItem one entry of a multi-select serialization payload
type SelectionItem struct {
	PostID     string `json:"postId"`
	PromptText string `json:"promptText"`
	ImageURL   string `json:"imageUrl"`
}

// MultiSelectionValue multi-select serialization payload
type MultiSelectionValue struct {
	Selections []SelectionItem `json:"selections"`
}
