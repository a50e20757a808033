package enums

// SessionState tags what a user's chat session is waiting on.
type SessionState string

const (
	SessionIdle             SessionState = "idle"
	SessionAwaitingSearch   SessionState = "awaiting_search"
	SessionAwaitingResend   SessionState = "awaiting_resend"
	SessionAwaitingFeedback SessionState = "awaiting_feedback"
)

func (s SessionState) Valid() bool {
	switch s {
	case SessionIdle, SessionAwaitingSearch, SessionAwaitingResend, SessionAwaitingFeedback:
		return true
	}
	return false
}

// EventKind identifies a bot-facing operation routed by the dispatcher.
type EventKind string

const (
	EventStart          EventKind = "start"
	EventBuyItem        EventKind = "buy_item"
	EventBuyGroup       EventKind = "buy_group"
	EventCartAdd        EventKind = "cart_add"
	EventCartRemove     EventKind = "cart_remove"
	EventCartView       EventKind = "cart_view"
	EventSearch         EventKind = "search"
	EventCheckout       EventKind = "checkout"
	EventCancelOrder    EventKind = "cancel_order"
	EventDeliver        EventKind = "deliver"
	EventResendAll      EventKind = "resend_all"
	EventResendOne      EventKind = "resend_one"
	EventOrderHistory   EventKind = "order_history"
	EventRecordFeedback EventKind = "record_feedback"
	EventReferralStart  EventKind = "referral_start"
)

// FeedbackMood is the reaction a buyer can leave on a delivered order.
type FeedbackMood string

const (
	MoodHappy   FeedbackMood = "happy"
	MoodNeutral FeedbackMood = "neutral"
	MoodSad     FeedbackMood = "sad"
)

func (m FeedbackMood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad:
		return true
	}
	return false
}

// FileKind says how an item payload should be sent to Telegram.
type FileKind string

const (
	FileVideo    FileKind = "video"
	FileDocument FileKind = "document"
)
