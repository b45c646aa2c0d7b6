package store

import "strconv"

// Ключи хранилища
const (
	KeySession  = "sudak_user"
	KeyUsers    = "sudak_users"
	KeyListings = "sudak_listings"

	ReviewsPrefix   = "reviews_"
	ChatPrefix      = "chat_"
	FavoritesPrefix = "favorites_"
)

// ReviewsKey возвращает ключ отзывов объявления
func ReviewsKey(listingID int64) string {
	return ReviewsPrefix + strconv.FormatInt(listingID, 10)
}

// ChatKey возвращает ключ переписки по ключу беседы
func ChatKey(conversationKey string) string {
	return ChatPrefix + conversationKey
}

// FavoritesKey возвращает ключ избранного пользователя
func FavoritesKey(userID string) string {
	return FavoritesPrefix + userID
}
