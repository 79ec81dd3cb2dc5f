package engine

import (
	"fmt"
	"time"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// buildNotification augments an accepted item with its match metadata.
func buildNotification(item *domain.Item, res *domain.MatchResult) *domain.Notification {
	n := &domain.Notification{
		Item:        *item,
		PercentDiff: res.PercentDiff,
		NotifiedAt:  time.Now().UTC(),
	}

	if res.Category == domain.MatchKeychain {
		n.NotificationType = domain.NotificationKeychain
		n.CharmName = res.CharmName
		n.CharmCategory = res.CharmCategory
		price := res.CharmPrice
		n.CharmPrice = &price
		n.CharmPriceDisplay = fmt.Sprintf("$%.2f", price)
		return n
	}

	n.NotificationType = domain.NotificationTargetItem
	n.TargetItemMatched = res.Entry
	return n
}

// historyRow flattens a notification into its persisted history form.
func historyRow(n *domain.Notification) *domain.NotifiedItem {
	row := &domain.NotifiedItem{
		ItemID:           string(n.ID),
		MarketName:       n.MarketName,
		MarketValue:      n.MarketValue,
		NotificationType: n.NotificationType,
		CharmName:        n.CharmName,
		CharmCategory:    n.CharmCategory,
		CharmPrice:       n.CharmPrice,
		PercentDiff:      n.PercentDiff,
		NotifiedAt:       n.NotifiedAt,
	}
	if n.TargetItemMatched != nil && !n.TargetItemMatched.IsUniversal() {
		row.MatchedKeyword = n.TargetItemMatched.Keyword
	}
	return row
}
