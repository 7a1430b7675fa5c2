package model

import "time"

// Notification — элемент ленты уведомлений администратора.
// Не хранится: всегда вычисляется из строки submissions.
type Notification struct {
	ID        int64
	Name      string
	Service   string
	CreatedAt time.Time
	IsRead    bool
}

// NotificationFeed — лента последних заявок и количество непрочитанных в ней.
type NotificationFeed struct {
	Notifications []Notification
	UnreadCount   int
}

// NewNotificationFeed строит ленту из заявок, упорядоченных от новых к старым.
func NewNotificationFeed(subs []*Submission) *NotificationFeed {
	feed := &NotificationFeed{Notifications: make([]Notification, 0, len(subs))}
	for _, s := range subs {
		n := Notification{
			ID:        s.ID,
			Name:      s.Name,
			Service:   s.Service,
			CreatedAt: s.CreatedAt,
			IsRead:    s.IsRead(),
		}
		if !n.IsRead {
			feed.UnreadCount++
		}
		feed.Notifications = append(feed.Notifications, n)
	}
	return feed
}
