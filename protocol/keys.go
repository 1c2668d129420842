package protocol

import "fmt"

// 资源 key，带命名空间，避免不同实体的 id 相撞

func UserKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func OrderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func ItemKey(itemID string) string {
	return fmt.Sprintf("item:%s", itemID)
}
