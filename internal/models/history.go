package models

// History is the full per-account transcript. The client accumulates it
// locally and sends the whole thing on every save; the store overwrites.
type History struct {
	Chat  []ChatMessage      `json:"chat"`
	Live  []LiveHistoryItem  `json:"live"`
	Image []ImageHistoryItem `json:"image"`
}

type ChatMessage struct {
	Sender    string `json:"sender"` // "user" or "model"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type LiveHistoryItem struct {
	User      string `json:"user"`
	Model     string `json:"model"`
	Timestamp int64  `json:"timestamp"`
}

type ImageHistoryItem struct {
	ImageDataURL string `json:"imageDataUrl"`
	Analysis     string `json:"analysis"`
	Timestamp    int64  `json:"timestamp"`
	FileName     string `json:"fileName"`
}

// EmptyHistory is the load result for accounts that never saved anything.
func EmptyHistory() *History {
	return &History{
		Chat:  []ChatMessage{},
		Live:  []LiveHistoryItem{},
		Image: []ImageHistoryItem{},
	}
}
