// internal/domain/models/groupchat.go
package models

// GroupChat is a chat room. Members and messages live in their own key
// namespaces under the chat's ID.
type GroupChat struct {
	ID string `json:"id"`

	Rev string `json:"-"`
}

// GroupChatMember links a chat to a user. Exactly one document per
// (chatID, userID).
type GroupChatMember struct {
	GroupChatID string `json:"groupChatID"`
	UserID      string `json:"userID"`

	Rev string `json:"-"`
}

// GroupChatMessage belongs to one chat. Its ID is "{millis}_{uuid}" so a
// prefix scan over a chat's messages returns them in send order.
type GroupChatMessage struct {
	ID          string `json:"messageID"`
	GroupChatID string `json:"groupChatID"`
	UserID      string `json:"userID"`
	Content     string `json:"content"`
	Time        int64  `json:"time"` // unix milliseconds

	Rev string `json:"-"`
}
