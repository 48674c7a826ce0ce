package domain

// Intent is the classified purpose of an inbound message, the initial state
// of a dialogue turn.
type Intent string

const (
	IntentGreeting              Intent = "greeting"
	IntentRegistration          Intent = "registration"
	IntentOrderRequest          Intent = "order-request"
	IntentOrderModification     Intent = "order-modification"
	IntentConfirmOrder          Intent = "confirm-order"
	IntentGeneralConfirmation   Intent = "general-confirmation"
	IntentDeliveryAddress       Intent = "delivery-address"
	IntentConfirmAddress        Intent = "confirm-address"
	IntentDeliveryMethod        Intent = "delivery-method"
	IntentPickupSite            Intent = "pickup-site-selection"
	IntentPickupTime            Intent = "pickup-time"
	IntentPaymentMethod         Intent = "payment-method"
	IntentPaymentVerification   Intent = "payment-verification"
	IntentPromotions            Intent = "promotions"
	IntentPromotionContinuation Intent = "promotion-continuation"
	IntentMenuQuery             Intent = "menu-query"
	IntentGeneralQuestion       Intent = "general-question"
	IntentOpeningHours          Intent = "opening-hours"
	IntentLocationQuery         Intent = "location-query"
	IntentComplaintMinor        Intent = "complaint-minor"
	IntentComplaintMajor        Intent = "complaint-major"
	IntentHumanHandoff          Intent = "human-handoff"
	IntentThanks                Intent = "thanks"
	IntentFarewell              Intent = "farewell"
	IntentUnclassifiable        Intent = "unclassifiable"
)

var known = map[Intent]struct{}{
	IntentGreeting: {}, IntentRegistration: {}, IntentOrderRequest: {},
	IntentOrderModification: {}, IntentConfirmOrder: {}, IntentGeneralConfirmation: {},
	IntentDeliveryAddress: {}, IntentConfirmAddress: {}, IntentDeliveryMethod: {},
	IntentPickupSite: {}, IntentPickupTime: {}, IntentPaymentMethod: {},
	IntentPaymentVerification: {}, IntentPromotions: {}, IntentPromotionContinuation: {},
	IntentMenuQuery: {}, IntentGeneralQuestion: {}, IntentOpeningHours: {},
	IntentLocationQuery: {}, IntentComplaintMinor: {}, IntentComplaintMajor: {},
	IntentHumanHandoff: {}, IntentThanks: {}, IntentFarewell: {}, IntentUnclassifiable: {},
}

// Parse maps a classifier tag onto an Intent; anything unknown becomes
// IntentUnclassifiable rather than an error.
func Parse(s string) Intent {
	if _, ok := known[Intent(s)]; ok {
		return Intent(s)
	}
	return IntentUnclassifiable
}
