package domain

type NotificationType string

const (
	NotifyPurchaseStatusChanged      NotificationType = "purchase_status_changed"
	NotifyOutOfStock                 NotificationType = "out_of_stock"
	NotifyNewPurchase                NotificationType = "new_purchase"
	NotifyNewArrivals                NotificationType = "new_arrivals"
	NotifyApplicationStatusChanged   NotificationType = "application_status_changed"
	NotifyClaimInnopoints            NotificationType = "claim_innopoints"
	NotifyAllFeedbackIn              NotificationType = "all_feedback_in"
	NotifyAddedAsModerator           NotificationType = "added_as_moderator"
	NotifyProjectReviewStatusChanged NotificationType = "project_review_status_changed"
	NotifyProjectReviewRequested     NotificationType = "project_review_requested"
	NotifyManualTransaction          NotificationType = "manual_transaction"
	NotifyService                    NotificationType = "service"
)

// Notification is one post-commit signal for a single recipient.
type Notification struct {
	Recipient string           `json:"recipient"`
	Type      NotificationType `json:"type"`
	Payload   map[string]any   `json:"payload"`
}
