package dialogue

import "fmt"

// Fixed reply texts. Replies are never localized.
const (
	ReplyWelcome = "👋 Welcome to TripGenie! What would you like to do today?\n" +
		"1️⃣ Get nearby place suggestions\n" +
		"2️⃣ Get a %d-day itinerary for a location\n\n" +
		"Please reply with 1 or 2."
	ReplyAlreadyActive = "⚠️ You're already in an active session. Please continue, or type '%s' to start fresh."
	ReplySessionEnded  = "👋 Your TripGenie session has ended. Type 'start' to begin a new one."
	ReplyExpired       = "⌛ Your session expired. Please type 'start' again to begin a new session."
	ReplyPleaseStart   = "❗ Please type 'start' to begin your TripGenie session."

	ReplySelectOption = "❗ Please select one of the options:\n" +
		"1️⃣ Get nearby place suggestions\n" +
		"2️⃣ Get a %d-day itinerary"
	ReplySelectOptionFirst = "❗ Please select an option first by replying with 1 or 2."
	ReplyShareLocation     = "📍 Great! Please share your location to begin."
	ReplyItineraryPrompt   = "🌍 Please type the location you want an itinerary for (e.g. Manali) or share your current location."

	ReplyLocationReceived   = "✅ Location received! Now, what would you like to explore? (e.g. restaurants, sightseeing, cafes)"
	ReplyLocationResolved   = "✅ Location set to *%s*! Now, what would you like to explore? (e.g. restaurants, sightseeing, cafes)"
	ReplyLocationNotFound   = "❌ Couldn't find that location. Please share your current location or try another place name."
	ReplyNoLocationYet      = "📍 No previous location found. Please share your location to continue."
	ReplyConfirmLocation    = "📍 I found *%s* in your message. Use this location? (Yes / No)"
	ReplyYesNoOnly          = "Please reply with yes or no only."
	ReplyLocationConfirmed  = "✅ Location confirmed! Now, what would you like to explore? (e.g. restaurants, sightseeing, cafes)"
	ReplyLocationNotConfirm = "❌ Couldn't confirm location. Please share your current location."
	ReplyKeepPrevious       = "👍 Okay, your previous location stays in effect. Ask your query, or share your location again to update it."
	ReplyNoPreviousLocation = "👍 Okay. No location is set yet, please share your location to continue."

	ReplyItineraryInvalid  = "📍 Please send a valid location name (e.g. Manali) or share your location."
	ReplyItinerary         = "🗺️ Here's your %d-day itinerary for *%s*:\n\n%s\n\n---\nNow let's explore places nearby. Please share your current location to begin."
	ReplyItineraryRedirect = "For itinerary, please end the session by typing '%s' and select option 2 in the new session."

	ReplyNotUnderstood   = "❓ Sorry, I couldn't understand your request. Please try a different query."
	ReplyNoResults       = "No nearby %s found."
	ReplySearchFailed    = "Something went wrong fetching places."
	ReplyInvalidLocation = "Invalid location format."

	resultsFooter = "💬 Ask another query?\n➡️ Type 'more' for more options.\n🚫 Type '%s' to finish your session."
)

// Reply outcome labels, used for metrics.
const (
	OutcomeWelcome           = "welcome"
	OutcomeAlreadyActive     = "already_active"
	OutcomeEnded             = "ended"
	OutcomeExpired           = "expired"
	OutcomeNoSession         = "no_session"
	OutcomeReprompt          = "reprompt"
	OutcomeModeSelected      = "mode_selected"
	OutcomeLocationSet       = "location_set"
	OutcomeLocationNotFound  = "location_not_found"
	OutcomeConfirmPrompt     = "confirm_prompt"
	OutcomeConfirmReprompt   = "confirm_reprompt"
	OutcomeConfirmed         = "location_confirmed"
	OutcomeConfirmFailed     = "location_confirm_failed"
	OutcomeDeclined          = "location_declined"
	OutcomeItinerary         = "itinerary"
	OutcomeItineraryFallback = "itinerary_fallback"
	OutcomeItineraryRedirect = "itinerary_redirect"
	OutcomePlaces            = "places"
	OutcomeEmptyPage         = "empty_page"
	OutcomeSearchFailed      = "search_failed"
	OutcomeInvalidLocation   = "invalid_location"
	OutcomeNotUnderstood     = "not_understood"
)

// Reply is a routed reply plus its outcome label.
type Reply struct {
	Text    string
	Outcome string
}

func reply(outcome, format string, args ...any) Reply {
	if len(args) == 0 {
		return Reply{Text: format, Outcome: outcome}
	}
	return Reply{Text: fmt.Sprintf(format, args...), Outcome: outcome}
}
