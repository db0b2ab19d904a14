package cache

// ChatListKey holds the chat list summary.
const ChatListKey = "chats"

const chatKeyPrefix = "messages:single:"

// ChatKey holds the full document of one chat.
func ChatKey(chatID string) string {
	return chatKeyPrefix + chatID
}
